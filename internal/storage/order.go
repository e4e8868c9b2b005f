package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/storefront/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ со статусом unpaid и снимок его товаров.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, orderPrice int64, products []models.OrderProduct) (int64, error)
	SetPaymentSessionTx(ctx context.Context, tx *sql.Tx, orderID int64, sessionID string) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// MarkPaid переводит заказ unpaid -> paid. Возвращает false, если заказ уже оплачен.
	MarkPaid(ctx context.Context, id int64) (bool, error)
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, orderPrice int64, products []models.OrderProduct) (int64, error) {
	var orderID int64
	query := `INSERT INTO orders (user_id, order_price, status, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, userID, orderPrice, models.OrderStatusUnpaid).Scan(&orderID); err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	for _, p := range products {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO order_products (order_id, product_id, name, price) VALUES ($1, $2, $3, $4)",
			orderID, p.ProductID, p.Name, p.Price,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to snapshot order product: %w", err)
		}
	}
	return orderID, nil
}

func (r *orderRepository) SetPaymentSessionTx(ctx context.Context, tx *sql.Tx, orderID int64, sessionID string) error {
	if _, err := tx.ExecContext(ctx, "UPDATE orders SET payment_session_id = $1 WHERE id = $2", sessionID, orderID); err != nil {
		return fmt.Errorf("failed to set payment session: %w", err)
	}
	return nil
}

const orderColumns = "id, user_id, order_price, status, payment_session_id, created_at, paid_at"

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	if err := row.Scan(&o.ID, &o.UserID, &o.OrderPrice, &o.Status, &o.PaymentSessionID, &o.CreatedAt, &o.PaidAt); err != nil {
		return nil, err
	}
	o.Products = make([]models.OrderProduct, 0)
	return o, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.attachProducts(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrdersByUserID возвращает заказы пользователя, новые первыми
func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachProducts(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachProducts одним запросом подгружает снимки товаров для списка заказов
func (r *orderRepository) attachProducts(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[int64]*models.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `
		SELECT order_id, product_id, name, price
		FROM order_products
		WHERE order_id = ANY($1)
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query order products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			p       models.OrderProduct
		)
		if err := rows.Scan(&orderID, &p.ProductID, &p.Name, &p.Price); err != nil {
			return fmt.Errorf("failed to scan order product: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Products = append(o.Products, p)
		}
	}
	return rows.Err()
}

func (r *orderRepository) MarkPaid(ctx context.Context, id int64) (bool, error) {
	// условие по статусу делает переход монотонным: повторный вызов ничего не меняет
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, paid_at = NOW() WHERE id = $2 AND status = $3",
		models.OrderStatusPaid, id, models.OrderStatusUnpaid,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 1 {
		return true, nil
	}

	var status models.OrderStatus
	if err := r.db.QueryRowContext(ctx, "SELECT status FROM orders WHERE id = $1", id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrOrderNotFound
		}
		return false, err
	}
	return false, nil
}
