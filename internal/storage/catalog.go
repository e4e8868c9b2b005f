package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

var ErrDuplicateName = errors.New("name already exists")

// CatalogStorage - справочники категорий и производителей
type CatalogStorage interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListManufacturers(ctx context.Context) ([]*models.Manufacturer, error)
	CreateManufacturer(ctx context.Context, name string) (*models.Manufacturer, error)
}

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) CatalogStorage {
	return &catalogRepository{db: db}
}

// таблицы categories и manufacturers устроены одинаково
func listNamed[T any](ctx context.Context, db *sql.DB, table string, build func(id int64, name string) T) ([]T, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name FROM "+table+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		result = append(result, build(id, name))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *catalogRepository) createNamed(ctx context.Context, table, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, "INSERT INTO "+table+" (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return 0, ErrDuplicateName
		}
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return id, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return listNamed(ctx, r.db, "categories", func(id int64, name string) *models.Category {
		return &models.Category{ID: id, Name: name}
	})
}

func (r *catalogRepository) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	id, err := r.createNamed(ctx, "categories", name)
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: name}, nil
}

func (r *catalogRepository) ListManufacturers(ctx context.Context) ([]*models.Manufacturer, error) {
	return listNamed(ctx, r.db, "manufacturers", func(id int64, name string) *models.Manufacturer {
		return &models.Manufacturer{ID: id, Name: name}
	})
}

func (r *catalogRepository) CreateManufacturer(ctx context.Context, name string) (*models.Manufacturer, error) {
	id, err := r.createNamed(ctx, "manufacturers", name)
	if err != nil {
		return nil, err
	}
	return &models.Manufacturer{ID: id, Name: name}, nil
}
