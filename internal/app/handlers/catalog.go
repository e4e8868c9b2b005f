package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/lib/api/response"
	"github.com/linemk/storefront/internal/service"
)

type NamedRequest struct {
	Name string `json:"name" validate:"required,max=150"`
}

func ListCategoriesHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ListCategoriesHandler"))

		categories, err := catalog.ListCategories(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, categories)
	}
}

func CreateCategoryHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CreateCategoryHandler"))

		var req NamedRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		category, err := catalog.CreateCategory(r.Context(), req.Name)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusCreated, category)
	}
}

func ListManufacturersHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.ListManufacturersHandler"))

		manufacturers, err := catalog.ListManufacturers(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, manufacturers)
	}
}

func CreateManufacturerHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CreateManufacturerHandler"))

		var req NamedRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		manufacturer, err := catalog.CreateManufacturer(r.Context(), req.Name)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusCreated, manufacturer)
	}
}
