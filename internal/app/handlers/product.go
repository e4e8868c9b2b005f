package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/lib/api/response"
	"github.com/linemk/storefront/internal/service"
)

const maxPhotoSize = 10 << 20

type ProductRequest struct {
	Name         string `json:"name" validate:"required,max=150"`
	Description  string `json:"description" validate:"max=1500"`
	Price        *int64 `json:"price" validate:"required,gte=0"`
	Category     *int64 `json:"category" validate:"omitempty,gt=0"`
	Manufacturer *int64 `json:"manufacturer" validate:"omitempty,gt=0"`
}

// ProductPatchRequest - все поля необязательные
type ProductPatchRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=150"`
	Description  *string `json:"description" validate:"omitempty,max=1500"`
	Price        *int64  `json:"price" validate:"omitempty,gte=0"`
	Category     *int64  `json:"category" validate:"omitempty,gt=0"`
	Manufacturer *int64  `json:"manufacturer" validate:"omitempty,gt=0"`
}

type ProductCreatedResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// parseProductFilter разбирает query: name, price_min, price_max, category, manufacturer, sort_by
func parseProductFilter(q url.Values) (models.ProductFilter, map[string]string) {
	filter := models.ProductFilter{
		Name:   q.Get("name"),
		SortBy: q.Get("sort_by"),
	}
	errs := make(map[string]string)

	parse := func(key string) *int64 {
		raw := q.Get(key)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs[key] = "number"
			return nil
		}
		return &v
	}
	filter.PriceMin = parse("price_min")
	filter.PriceMax = parse("price_max")
	filter.CategoryID = parse("category")
	filter.ManufacturerID = parse("manufacturer")

	return filter, errs
}

// ListProductsHandler обрабатывает GET /products
func ListProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		filter, errs := parseProductFilter(r.URL.Query())
		if len(errs) > 0 {
			response.ValidationError(w, errs)
			return
		}

		products, err := catalog.ListProducts(r.Context(), filter)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, products)
	}
}

// CreateProductHandler обрабатывает POST /product (только сотрудники)
func CreateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateProductHandler"
		logger := log.With(slog.String("op", op))

		var req ProductRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		product, err := catalog.CreateProduct(r.Context(), &models.Product{
			Name:           req.Name,
			Description:    req.Description,
			Price:          *req.Price,
			CategoryID:     req.Category,
			ManufacturerID: req.Manufacturer,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}

		response.JSON(w, http.StatusCreated, ProductCreatedResponse{ID: product.ID, Message: "Product added"})
	}
}

// ProductDetailHandler обрабатывает GET /product/{id}; токен необязателен
func ProductDetailHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductDetailHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		var viewer *models.Principal
		if p, ok := jwtmiddleware.FromContext(r.Context()); ok {
			viewer = p
		}

		detail, err := catalog.GetProductDetail(r.Context(), id, viewer)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, detail)
	}
}

func UpdateProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		var req ProductPatchRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		product, err := catalog.UpdateProduct(r.Context(), id, models.ProductPatch{
			Name:           req.Name,
			Description:    req.Description,
			Price:          req.Price,
			CategoryID:     req.Category,
			ManufacturerID: req.Manufacturer,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, product)
	}
}

func DeleteProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		if err := catalog.DeleteProduct(r.Context(), id); err != nil {
			writeError(w, logger, err)
			return
		}
		response.Message(w, http.StatusOK, "Product removed")
	}
}

// UploadPhotoHandler принимает multipart-поле photo
func UploadPhotoHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UploadPhotoHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
		file, header, err := r.FormFile("photo")
		if err != nil {
			logger.Warn("invalid request: photo is missing", slog.Any("error", err))
			response.ValidationError(w, map[string]string{"photo": "required"})
			return
		}
		defer file.Close()

		product, err := catalog.UploadPhoto(r.Context(), id, service.PhotoUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, product)
	}
}

// RecentProductsHandler - последние просмотренные товары текущего пользователя
func RecentProductsHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RecentProductsHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}

		products, err := catalog.ListRecent(r.Context(), p.UserID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, products)
	}
}
