package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/lib/api/response"
	"github.com/linemk/storefront/internal/service"
)

// CartHandler обрабатывает GET /cart
func CartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CartHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}

		items, err := cart.ViewCart(r.Context(), p.UserID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, items)
	}
}

// AddToCartHandler обрабатывает POST /cart/{product_id}
func AddToCartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, "product_id")
		if !ok {
			return
		}

		if err := cart.AddProduct(r.Context(), p.UserID, productID); err != nil {
			writeError(w, logger, err)
			return
		}
		response.Message(w, http.StatusOK, "product added to cart")
	}
}

// RemoveFromCartHandler обрабатывает DELETE /cart/{product_id}
func RemoveFromCartHandler(log *slog.Logger, cart service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, "product_id")
		if !ok {
			return
		}

		if err := cart.RemoveProduct(r.Context(), p.UserID, productID); err != nil {
			writeError(w, logger, err)
			return
		}
		response.Message(w, http.StatusOK, "item removed from cart")
	}
}
