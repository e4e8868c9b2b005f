package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/storefront/internal/storage"
)

// CartItem - позиция корзины. ID - порядковый номер в выдаче, цена текущая
type CartItem struct {
	ID          int    `json:"id"`
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

type CartService interface {
	ViewCart(ctx context.Context, userID int64) ([]CartItem, error)
	AddProduct(ctx context.Context, userID, productID int64) error
	RemoveProduct(ctx context.Context, userID, productID int64) error
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// ViewCart создаёт пустую корзину при первом обращении
func (s *cartService) ViewCart(ctx context.Context, userID int64) ([]CartItem, error) {
	const op = "service.CartService.ViewCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	cartID, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products, err := s.cartRepo.ListCartProducts(ctx, cartID)
	if err != nil {
		logger.Error("failed to list cart products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]CartItem, 0, len(products))
	for i, p := range products {
		items = append(items, CartItem{
			ID:          i + 1,
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
		})
	}
	return items, nil
}

func (s *cartService) AddProduct(ctx context.Context, userID, productID int64) error {
	const op = "service.CartService.AddProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	cartID, err := s.cartFor(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.AddProduct(ctx, cartID, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to add product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product added to cart")
	return nil
}

func (s *cartService) RemoveProduct(ctx context.Context, userID, productID int64) error {
	const op = "service.CartService.RemoveProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	cartID, err := s.cartFor(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cartRepo.RemoveProduct(ctx, cartID, productID); err != nil {
		logger.Error("failed to remove product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product removed from cart")
	return nil
}

// cartFor проверяет товар и возвращает корзину пользователя
func (s *cartService) cartFor(ctx context.Context, userID, productID int64) (int64, error) {
	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return 0, ErrNotFound
		}
		s.log.Error("failed to get product", slog.Int64("productID", productID), slog.Any("error", err))
		return 0, err
	}

	cartID, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		s.log.Error("failed to get cart", slog.Int64("userID", userID), slog.Any("error", err))
		return 0, err
	}
	return cartID, nil
}
