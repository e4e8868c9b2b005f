package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

// RecentStorage - недавно просмотренные товары
type RecentStorage interface {
	// TouchRecent создаёт или обновляет отметку просмотра (одна строка на пару товар/пользователь).
	TouchRecent(ctx context.Context, userID, productID int64) error
	ListRecent(ctx context.Context, userID int64, limit int) ([]*models.Product, error)
}

type recentRepository struct {
	db *sql.DB
}

func NewRecentRepository(db *sql.DB) RecentStorage {
	return &recentRepository{db: db}
}

func (r *recentRepository) TouchRecent(ctx context.Context, userID, productID int64) error {
	query := `INSERT INTO recent_products (product_id, user_id, viewed_at) VALUES ($1, $2, NOW())
	          ON CONFLICT (product_id, user_id) DO UPDATE SET viewed_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, productID, userID); err != nil {
		return fmt.Errorf("failed to touch recent product: %w", err)
	}
	return nil
}

func (r *recentRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]*models.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.category_id, p.manufacturer_id, p.photo, p.created_at
		FROM recent_products rp
		JOIN products p ON p.id = rp.product_id
		WHERE rp.user_id = $1
		ORDER BY rp.viewed_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent products: %w", err)
	}
	return collectProducts(rows)
}
