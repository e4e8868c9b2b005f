package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/lib/api/response"
	"github.com/linemk/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type ReviewRequest struct {
	ProductID int64            `json:"product_id" validate:"required,gt=0"`
	Text      string           `json:"text" validate:"required"`
	Grade     *decimal.Decimal `json:"grade" validate:"required,grade"`
}

type ReviewPatchRequest struct {
	Text  *string          `json:"text" validate:"omitempty,min=1"`
	Grade *decimal.Decimal `json:"grade" validate:"omitempty,grade"`
}

// CreateReviewHandler обрабатывает POST /review
func CreateReviewHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateReviewHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}

		var req ReviewRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		review, err := reviews.CreateReview(r.Context(), p.UserID, req.ProductID, req.Text, *req.Grade)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusCreated, review)
	}
}

// UpdateReviewHandler обрабатывает PATCH /review/{id}; менять отзыв может только автор
func UpdateReviewHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateReviewHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		var req ReviewPatchRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		review, err := reviews.UpdateReview(r.Context(), p.UserID, id, service.ReviewPatch{Text: req.Text, Grade: req.Grade})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		response.JSON(w, http.StatusOK, review)
	}
}

func DeleteReviewHandler(log *slog.Logger, reviews service.ReviewService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteReviewHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		if err := reviews.DeleteReview(r.Context(), p.UserID, id); err != nil {
			writeError(w, logger, err)
			return
		}
		response.NoContent(w)
	}
}
