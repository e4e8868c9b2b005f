package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/storefront/internal/lib/api/response"
	"github.com/linemk/storefront/internal/service"
)

// лимит тела webhook, как в примерах Stripe
const maxWebhookBody = 65536

type PlaceOrderResponse struct {
	OrderID    int64  `json:"order_id"`
	PaymentURL string `json:"payment_url"`
	Message    string `json:"message"`
}

// ListOrdersHandler обрабатывает GET /order
func ListOrdersHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}

		list, err := orders.ListOrders(r.Context(), p.UserID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, list)
	}
}

// PlaceOrderHandler обрабатывает POST /order: оформляет корзину и возвращает ссылку на оплату
func PlaceOrderHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}

		placed, err := orders.PlaceOrder(r.Context(), p.UserID)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		response.JSON(w, http.StatusOK, PlaceOrderResponse{
			OrderID:    placed.OrderID,
			PaymentURL: placed.PaymentURL,
			Message:    "Order is processed",
		})
	}
}

// PaymentStatusHandler обрабатывает GET /payment-status/{session_id}
func PaymentStatusHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PaymentStatusHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}
		sessionID := chi.URLParam(r, "session_id")
		if sessionID == "" {
			response.Error(w, http.StatusNotFound, "Not found")
			return
		}

		status, err := orders.CheckStatus(r.Context(), p.UserID, sessionID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, status)
	}
}

// StripeWebhookHandler принимает подписанные уведомления платёжного шлюза
func StripeWebhookHandler(log *slog.Logger, orders service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StripeWebhookHandler"
		logger := log.With(slog.String("op", op))

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				logger.Warn("webhook body too large", slog.Int64("limit", tooLarge.Limit))
				response.Error(w, http.StatusRequestEntityTooLarge, "Payload too large")
				return
			}
			logger.Warn("failed to read webhook body", slog.Any("error", err))
			response.Error(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		if err := orders.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}
