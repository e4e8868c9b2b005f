package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/linemk/storefront/internal/app"
	"github.com/linemk/storefront/internal/app/handlers"
	"github.com/linemk/storefront/internal/config"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/lib/logger"
	"github.com/linemk/storefront/internal/lib/logger/handlers/urllog"
	"github.com/linemk/storefront/internal/service"
	"github.com/linemk/storefront/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	application, err := app.NewApp(initCtx, log, cfg)
	cancelInit()
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	tokenRepo := storage.NewTokenRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	catalogRepo := storage.NewCatalogRepository(application.DB)
	recentRepo := storage.NewRecentRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	reviewRepo := storage.NewReviewRepository(application.DB)

	authService := service.NewAuthService(log, userRepo, tokenRepo, cfg.Auth.Secret, cfg.Auth.TokenTTL)
	catalogService := service.NewCatalogService(log, productRepo, catalogRepo, reviewRepo, recentRepo, application.Objects)
	cartService := service.NewCartService(log, cartRepo, productRepo)
	orderService := service.NewOrderService(log, application.DB, userRepo, cartRepo, orderRepo, application.Gateway)
	reviewService := service.NewReviewService(log, reviewRepo, productRepo)

	jwtMW := jwtmiddleware.NewJWTMiddleware(log, cfg.Auth.Secret, authService)
	optionalJWT := jwtmiddleware.NewOptionalJWTMiddleware(cfg.Auth.Secret, authService)

	// публичные эндпоинты
	router.Post("/users/sign", handlers.SignUpHandler(log, authService))
	router.Post("/users/login", handlers.LoginHandler(log, authService))
	router.Get("/products", handlers.ListProductsHandler(log, catalogService))
	router.Get("/categories", handlers.ListCategoriesHandler(log, catalogService))
	router.Get("/manufacturers", handlers.ListManufacturersHandler(log, catalogService))
	// подпись проверяется в сервисе, токен не нужен
	router.Post("/stripe/webhook", handlers.StripeWebhookHandler(log, orderService))
	router.With(optionalJWT).Get("/product/{id}", handlers.ProductDetailHandler(log, catalogService))

	router.Group(func(r chi.Router) {
		r.Use(jwtMW)

		r.Post("/users/logout", handlers.LogoutHandler(log, authService))
		r.Get("/recent", handlers.RecentProductsHandler(log, catalogService))

		r.Post("/review", handlers.CreateReviewHandler(log, reviewService))
		r.Patch("/review/{id}", handlers.UpdateReviewHandler(log, reviewService))
		r.Delete("/review/{id}", handlers.DeleteReviewHandler(log, reviewService))

		// управление каталогом
		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.RequireStaff)

			r.Get("/products/export", handlers.ExportProductsHandler(log, catalogService))
			r.Post("/product", handlers.CreateProductHandler(log, catalogService))
			r.Patch("/product/{id}", handlers.UpdateProductHandler(log, catalogService))
			r.Delete("/product/{id}", handlers.DeleteProductHandler(log, catalogService))
			r.Post("/product/{id}/photo", handlers.UploadPhotoHandler(log, catalogService))
			r.Post("/category", handlers.CreateCategoryHandler(log, catalogService))
			r.Post("/manufacturer", handlers.CreateManufacturerHandler(log, catalogService))
		})

		// корзина и заказы только для покупателей
		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.RequireCustomer)

			r.Get("/cart", handlers.CartHandler(log, cartService))
			r.Post("/cart/{product_id}", handlers.AddToCartHandler(log, cartService))
			r.Delete("/cart/{product_id}", handlers.RemoveFromCartHandler(log, cartService))
			r.Get("/order", handlers.ListOrdersHandler(log, orderService))
			r.Post("/order", handlers.PlaceOrderHandler(log, orderService))
			r.Get("/payment-status/{session_id}", handlers.PaymentStatusHandler(log, orderService))
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout + cfg.Payment.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
