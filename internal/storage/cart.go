package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCartLocked   = errors.New("cart is being checked out, please try again")
)

// CartStorage описывает методы для работы с корзинами.
type CartStorage interface {
	// GetOrCreateCart возвращает id корзины пользователя, создавая её при первом обращении.
	GetOrCreateCart(ctx context.Context, userID int64) (int64, error)
	ListCartProducts(ctx context.Context, cartID int64) ([]*models.Product, error)
	// AddProduct и RemoveProduct работают как операции над множеством.
	AddProduct(ctx context.Context, cartID, productID int64) error
	RemoveProduct(ctx context.Context, cartID, productID int64) error
	// LockCartTx блокирует корзину пользователя и читает её товары внутри транзакции.
	LockCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error)
	DeleteCartTx(ctx context.Context, tx *sql.Tx, cartID int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreateCart(ctx context.Context, userID int64) (int64, error) {
	// DO UPDATE нужен, чтобы RETURNING вернул id и для уже существующей строки
	query := `INSERT INTO carts (user_id) VALUES ($1)
	          ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	          RETURNING id`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get or create cart: %w", err)
	}
	return id, nil
}

func listCartProducts(ctx context.Context, q querier, cartID int64) ([]*models.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.category_id, p.manufacturer_id, p.photo, p.created_at
		FROM cart_products cp
		JOIN products p ON p.id = cp.product_id
		WHERE cp.cart_id = $1
		ORDER BY p.id`
	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart products: %w", err)
	}
	return collectProducts(rows)
}

func (r *cartRepository) ListCartProducts(ctx context.Context, cartID int64) ([]*models.Product, error) {
	return listCartProducts(ctx, r.db, cartID)
}

func (r *cartRepository) AddProduct(ctx context.Context, cartID, productID int64) error {
	query := `INSERT INTO cart_products (cart_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID); err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to add product to cart: %w", err)
	}
	return nil
}

func (r *cartRepository) RemoveProduct(ctx context.Context, cartID, productID int64) error {
	query := `DELETE FROM cart_products WHERE cart_id = $1 AND product_id = $2`
	if _, err := r.db.ExecContext(ctx, query, cartID, productID); err != nil {
		return fmt.Errorf("failed to remove product from cart: %w", err)
	}
	return nil
}

func (r *cartRepository) LockCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	row := tx.QueryRowContext(ctx, "SELECT id FROM carts WHERE user_id = $1 FOR UPDATE NOWAIT", userID)
	if err := row.Scan(&cart.ID); err != nil {
		if pgCode(err) == pgLockNotAvailable {
			return nil, ErrCartLocked
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	products, err := listCartProducts(ctx, tx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Products = products
	return cart, nil
}

func (r *cartRepository) DeleteCartTx(ctx context.Context, tx *sql.Tx, cartID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM carts WHERE id = $1", cartID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
