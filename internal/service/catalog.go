package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
	"github.com/linemk/storefront/internal/storage/objectstore"
	"github.com/shopspring/decimal"
)

// RecentLimit - сколько последних просмотренных товаров отдаёт /recent
const RecentLimit = 10

const photoPrefix = "products"

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ProductDetail - карточка товара с отзывами. Rating считается при чтении
type ProductDetail struct {
	*models.Product
	Rating  *decimal.Decimal `json:"rating"`
	Reviews []*models.Review `json:"reviews"`
}

// ExportRow - строка выгрузки каталога
type ExportRow struct {
	Product      *models.Product
	Category     string
	Manufacturer string
}

type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CatalogService interface {
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProductDetail(ctx context.Context, id int64, viewer *models.Principal) (*ProductDetail, error)
	ListRecent(ctx context.Context, userID int64) ([]*models.Product, error)
	UploadPhoto(ctx context.Context, id int64, photo PhotoUpload) (*models.Product, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListManufacturers(ctx context.Context) ([]*models.Manufacturer, error)
	CreateManufacturer(ctx context.Context, name string) (*models.Manufacturer, error)
	ExportProducts(ctx context.Context) ([]ExportRow, error)
}

type catalogService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	catalogRepo storage.CatalogStorage
	reviewRepo  storage.ReviewStorage
	recentRepo  storage.RecentStorage
	objects     objectstore.ObjectStorage
}

// objects может быть nil: тогда загрузка фото недоступна, а photo отдаётся как есть
func NewCatalogService(
	log *slog.Logger,
	productRepo storage.ProductStorage,
	catalogRepo storage.CatalogStorage,
	reviewRepo storage.ReviewStorage,
	recentRepo storage.RecentStorage,
	objects objectstore.ObjectStorage,
) CatalogService {
	return &catalogService{
		log:         log,
		productRepo: productRepo,
		catalogRepo: catalogRepo,
		reviewRepo:  reviewRepo,
		recentRepo:  recentRepo,
		objects:     objects,
	}
}

// в базе хранится ключ объекта, наружу отдаём ссылку
func (s *catalogService) withPhotoURL(products ...*models.Product) {
	if s.objects == nil {
		return
	}
	for _, p := range products {
		if p.Photo != nil && *p.Photo != "" {
			url := s.objects.URL(*p.Photo)
			p.Photo = &url
		}
	}
}

func (s *catalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	const op = "service.CatalogService.ListProducts"

	products, err := s.productRepo.ListProducts(ctx, filter)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.withPhotoURL(products...)
	return products, nil
}

func validateProduct(name string, price int64) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "required")
	}
	if price < 0 {
		return invalid("price", "min")
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	const op = "service.CatalogService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.String("name", product.Name))

	if err := validateProduct(product.Name, product.Price); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidReference) {
			logger.Warn("unknown category or manufacturer")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product created", slog.Int64("productID", created.ID))
	return created, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	const op = "service.CatalogService.UpdateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%s: %w", op, invalid("name", "required"))
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, fmt.Errorf("%s: %w", op, invalid("price", "min"))
	}

	product, err := s.productRepo.UpdateProduct(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) || errors.Is(err, storage.ErrInvalidReference) {
			logger.Warn("product update rejected", slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product updated")
	s.withPhotoURL(product)
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id int64) error {
	const op = "service.CatalogService.DeleteProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("product removed")
	return nil
}

// GetProductDetail отдаёт товар с отзывами и средней оценкой.
// Для авторизованного пользователя товар попадает в список недавно просмотренных.
func (s *catalogService) GetProductDetail(ctx context.Context, id int64, viewer *models.Principal) (*ProductDetail, error) {
	const op = "service.CatalogService.GetProductDetail"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.reviewRepo.GetReviewsByProductID(ctx, id)
	if err != nil {
		logger.Error("failed to get reviews", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if viewer != nil {
		// ошибка истории просмотров не мешает отдать карточку
		if err := s.recentRepo.TouchRecent(ctx, viewer.UserID, id); err != nil {
			logger.Warn("failed to record recent view", slog.Int64("userID", viewer.UserID), slog.Any("error", err))
		}
	}

	s.withPhotoURL(product)
	return &ProductDetail{
		Product: product,
		Rating:  models.AverageGrade(reviews),
		Reviews: reviews,
	}, nil
}

func (s *catalogService) ListRecent(ctx context.Context, userID int64) ([]*models.Product, error) {
	const op = "service.CatalogService.ListRecent"

	products, err := s.recentRepo.ListRecent(ctx, userID, RecentLimit)
	if err != nil {
		s.log.Error("failed to list recent products", slog.String("op", op), slog.Int64("userID", userID), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.withPhotoURL(products...)
	return products, nil
}

// UploadPhoto кладёт файл в объектное хранилище и записывает ключ в товар
func (s *catalogService) UploadPhoto(ctx context.Context, id int64, photo PhotoUpload) (*models.Product, error) {
	const op = "service.CatalogService.UploadPhoto"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	if s.objects == nil {
		return nil, fmt.Errorf("%s: object storage is not configured", op)
	}
	if !allowedPhotoTypes[photo.ContentType] {
		return nil, fmt.Errorf("%s: %w", op, invalid("photo", "image"))
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key, err := s.objects.Upload(ctx, photoPrefix, photo.Filename, photo.Body, photo.Size, photo.ContentType)
	if err != nil {
		logger.Error("failed to upload photo", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productRepo.SetPhoto(ctx, id, key); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to save photo key", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("photo uploaded", slog.String("key", key))
	product.Photo = &key
	s.withPhotoURL(product)
	return product, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CatalogService.ListCategories"

	categories, err := s.catalogRepo.ListCategories(ctx)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	const op = "service.CatalogService.CreateCategory"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, invalid("name", "required"))
	}

	category, err := s.catalogRepo.CreateCategory(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			return nil, fmt.Errorf("%s: %w", op, invalid("name", "unique"))
		}
		s.log.Error("failed to create category", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return category, nil
}

func (s *catalogService) ListManufacturers(ctx context.Context) ([]*models.Manufacturer, error) {
	const op = "service.CatalogService.ListManufacturers"

	manufacturers, err := s.catalogRepo.ListManufacturers(ctx)
	if err != nil {
		s.log.Error("failed to list manufacturers", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return manufacturers, nil
}

func (s *catalogService) CreateManufacturer(ctx context.Context, name string) (*models.Manufacturer, error) {
	const op = "service.CatalogService.CreateManufacturer"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, invalid("name", "required"))
	}

	manufacturer, err := s.catalogRepo.CreateManufacturer(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			return nil, fmt.Errorf("%s: %w", op, invalid("name", "unique"))
		}
		s.log.Error("failed to create manufacturer", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return manufacturer, nil
}

// ExportProducts собирает каталог с названиями категорий и производителей
func (s *catalogService) ExportProducts(ctx context.Context) ([]ExportRow, error) {
	const op = "service.CatalogService.ExportProducts"
	logger := s.log.With(slog.String("op", op))

	products, err := s.productRepo.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		logger.Error("failed to list products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	categories, err := s.catalogRepo.ListCategories(ctx)
	if err != nil {
		logger.Error("failed to list categories", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	manufacturers, err := s.catalogRepo.ListManufacturers(ctx)
	if err != nil {
		logger.Error("failed to list manufacturers", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}
	manufacturerNames := make(map[int64]string, len(manufacturers))
	for _, m := range manufacturers {
		manufacturerNames[m.ID] = m.Name
	}

	s.withPhotoURL(products...)
	rows := make([]ExportRow, 0, len(products))
	for _, p := range products {
		row := ExportRow{Product: p}
		if p.CategoryID != nil {
			row.Category = categoryNames[*p.CategoryID]
		}
		if p.ManufacturerID != nil {
			row.Manufacturer = manufacturerNames[*p.ManufacturerID]
		}
		rows = append(rows, row)
	}

	logger.Info("catalog exported", slog.Int("products", len(rows)))
	return rows, nil
}
