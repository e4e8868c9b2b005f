package models

import "time"

type OrderStatus string

const (
	OrderStatusUnpaid OrderStatus = "unpaid"
	OrderStatusPaid   OrderStatus = "paid"
)

// Order - заказ, созданный из корзины. OrderPrice фиксируется при создании
type Order struct {
	ID               int64          `json:"id"`
	UserID           int64          `json:"-"`
	OrderPrice       int64          `json:"order_price"`
	Status           OrderStatus    `json:"status"`
	PaymentSessionID *string        `json:"-"`
	Products         []OrderProduct `json:"products"`
	CreatedAt        time.Time      `json:"created_at"`
	PaidAt           *time.Time     `json:"paid_at,omitempty"`
}

// OrderProduct - снимок товара на момент оформления заказа.
// ProductID обнуляется, если товар удалён из каталога
type OrderProduct struct {
	ProductID *int64 `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
}

// IsPaid - статус меняется только unpaid -> paid
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}
