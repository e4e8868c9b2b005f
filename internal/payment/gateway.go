package payment

import (
	"context"
	"errors"
	"strconv"
)

// EventCheckoutCompleted - единственное событие шлюза, которое меняет состояние заказа
const EventCheckoutCompleted = "checkout.session.completed"

// ключ метаданных сессии, по которому callback находит заказ
const orderIDMetadataKey = "order_id"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature or payload")
	ErrGateway          = errors.New("payment gateway error")
)

// GatewayError - отказ шлюза; Message отдаётся клиенту без изменений
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string {
	return "payment gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return ErrGateway
}

type LineItem struct {
	Name  string
	Price int64 // в целых единицах валюты
}

type CheckoutRequest struct {
	OrderID       int64
	CustomerEmail string
	Items         []LineItem
}

// Session - состояние checkout-сессии на стороне шлюза.
// OrderID равен 0, если в метаданных нет корректного id заказа.
type Session struct {
	ID      string
	URL     string
	Paid    bool
	OrderID int64
}

// Event - проверенное уведомление от шлюза
type Event struct {
	Type      string
	SessionID string
	OrderID   int64
}

// Gateway - внешний платёжный шлюз
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	// ParseWebhook проверяет подпись и разбирает событие; при любой ошибке возвращает ErrInvalidSignature.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

func orderIDFromMetadata(metadata map[string]string) int64 {
	raw, ok := metadata[orderIDMetadataKey]
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
