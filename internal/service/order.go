package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/payment"
	"github.com/linemk/storefront/internal/storage"
)

// PlacedOrder - результат оформления: заказ и ссылка на оплату
type PlacedOrder struct {
	OrderID    int64  `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

type PaymentStatus struct {
	OrderID int64              `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
}

type OrderService interface {
	ListOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	PlaceOrder(ctx context.Context, userID int64) (*PlacedOrder, error)
	CheckStatus(ctx context.Context, userID int64, sessionID string) (*PaymentStatus, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	userRepo  storage.UserStorage
	cartRepo  storage.CartStorage
	orderRepo storage.OrderStorage
	gateway   payment.Gateway
}

func NewOrderService(
	log *slog.Logger,
	db *sql.DB,
	userRepo storage.UserStorage,
	cartRepo storage.CartStorage,
	orderRepo storage.OrderStorage,
	gateway payment.Gateway,
) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		userRepo:  userRepo,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		gateway:   gateway,
	}
}

func (s *orderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.ListOrders"

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func rollback(tx *sql.Tx, logger *slog.Logger) {
	if rbErr := tx.Rollback(); rbErr != nil {
		logger.Error("transaction rollback failed", slog.Any("error", rbErr))
	}
}

// PlaceOrder превращает корзину в заказ и открывает платёжную сессию.
// Всё выполняется в одной транзакции: если шлюз отказал, заказа не остаётся, корзина цела.
func (s *orderService) PlaceOrder(ctx context.Context, userID int64) (*PlacedOrder, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("placing order")

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// блокировка корзины не даёт оформить её дважды параллельными запросами
	cart, err := s.cartRepo.LockCartTx(ctx, tx, userID)
	if err != nil {
		rollback(tx, logger)
		switch {
		case errors.Is(err, storage.ErrCartNotFound):
			logger.Warn("cart not found")
			return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
		case errors.Is(err, storage.ErrCartLocked):
			logger.Warn("cart is locked by another checkout")
			return nil, fmt.Errorf("%s: %w", op, ErrCartBusy)
		}
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}
	if len(cart.Products) == 0 {
		rollback(tx, logger)
		logger.Warn("cart is empty")
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	orderPrice := cart.Total()
	snapshot := make([]models.OrderProduct, 0, len(cart.Products))
	items := make([]payment.LineItem, 0, len(cart.Products))
	for _, p := range cart.Products {
		productID := p.ID
		snapshot = append(snapshot, models.OrderProduct{ProductID: &productID, Name: p.Name, Price: p.Price})
		items = append(items, payment.LineItem{Name: p.Name, Price: p.Price})
	}

	orderID, err := s.orderRepo.CreateOrderTx(ctx, tx, userID, orderPrice, snapshot)
	if err != nil {
		rollback(tx, logger)
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}
	logger = logger.With(slog.Int64("orderID", orderID))

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		OrderID:       orderID,
		CustomerEmail: user.Email,
		Items:         items,
	})
	if err != nil {
		rollback(tx, logger)
		logger.Error("failed to create checkout session", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.orderRepo.SetPaymentSessionTx(ctx, tx, orderID, session.ID); err != nil {
		rollback(tx, logger)
		logger.Error("failed to save payment session", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to save payment session: %w", op, err)
	}

	if err := s.cartRepo.DeleteCartTx(ctx, tx, cart.ID); err != nil {
		rollback(tx, logger)
		logger.Error("failed to delete cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to delete cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order placed", slog.Int64("orderPrice", orderPrice), slog.String("sessionID", session.ID))
	return &PlacedOrder{OrderID: orderID, PaymentURL: session.URL}, nil
}

// CheckStatus сверяет заказ с состоянием сессии в шлюзе.
// Переход в paid монотонный, поэтому повторные вызовы и гонка с webhook безопасны.
func (s *orderService) CheckStatus(ctx context.Context, userID int64, sessionID string) (*PaymentStatus, error) {
	const op = "service.OrderService.CheckStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.String("sessionID", sessionID))

	session, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		logger.Error("failed to get checkout session", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if session.OrderID == 0 {
		logger.Warn("session without order id")
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	order, err := s.orderRepo.GetOrderByID(ctx, session.OrderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("order from session not found", slog.Int64("orderID", session.OrderID))
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// чужой заказ не отличаем от несуществующего
	if order.UserID != userID || (order.PaymentSessionID != nil && *order.PaymentSessionID != sessionID) {
		logger.Warn("session does not belong to user", slog.Int64("orderID", order.ID))
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	status := order.Status
	if session.Paid && !order.IsPaid() {
		changed, err := s.orderRepo.MarkPaid(ctx, order.ID)
		if err != nil {
			logger.Error("failed to mark order paid", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if changed {
			logger.Info("order paid", slog.Int64("orderID", order.ID))
		}
		status = models.OrderStatusPaid
	}

	return &PaymentStatus{OrderID: order.ID, Status: status}, nil
}

// HandleWebhook принимает уведомление шлюза. Неверная подпись отклоняется без изменений.
// Событие без заказа или с неизвестным заказом принимается молча, иначе шлюз будет повторять доставку.
func (s *orderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	const op = "service.OrderService.HandleWebhook"
	logger := s.log.With(slog.String("op", op))

	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		logger.Warn("webhook rejected", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	logger = logger.With(slog.String("eventType", event.Type))

	if event.Type != payment.EventCheckoutCompleted {
		logger.Debug("event ignored")
		return nil
	}
	if event.OrderID == 0 {
		logger.Warn("completed event without order id", slog.String("sessionID", event.SessionID))
		return nil
	}
	logger = logger.With(slog.Int64("orderID", event.OrderID))

	changed, err := s.orderRepo.MarkPaid(ctx, event.OrderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("completed event for unknown order")
			return nil
		}
		logger.Error("failed to mark order paid", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if changed {
		logger.Info("order paid")
	} else {
		logger.Info("order already paid, duplicate delivery")
	}
	return nil
}
