package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

// ReviewPatch - частичное изменение отзыва
type ReviewPatch struct {
	Text  *string
	Grade *decimal.Decimal
}

type ReviewService interface {
	CreateReview(ctx context.Context, userID, productID int64, text string, grade decimal.Decimal) (*models.Review, error)
	UpdateReview(ctx context.Context, userID, reviewID int64, patch ReviewPatch) (*models.Review, error)
	DeleteReview(ctx context.Context, userID, reviewID int64) error
}

type reviewService struct {
	log         *slog.Logger
	reviewRepo  storage.ReviewStorage
	productRepo storage.ProductStorage
}

func NewReviewService(log *slog.Logger, reviewRepo storage.ReviewStorage, productRepo storage.ProductStorage) ReviewService {
	return &reviewService{
		log:         log,
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

func (s *reviewService) CreateReview(ctx context.Context, userID, productID int64, text string, grade decimal.Decimal) (*models.Review, error) {
	const op = "service.ReviewService.CreateReview"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if !models.ValidGrade(grade) {
		return nil, fmt.Errorf("%s: %w", op, invalid("grade", "grade"))
	}

	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	review, err := s.reviewRepo.CreateReview(ctx, &models.Review{
		ProductID: productID,
		UserID:    userID,
		Text:      text,
		Grade:     grade,
	})
	if err != nil {
		// товар могли удалить между проверкой и вставкой
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to create review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("review created", slog.Int64("reviewID", review.ID))
	return review, nil
}

// ownReview возвращает отзыв, если его автор userID
func (s *reviewService) ownReview(ctx context.Context, userID, reviewID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetReviewByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, storage.ErrReviewNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if review.UserID != userID {
		return nil, ErrForbidden
	}
	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, userID, reviewID int64, patch ReviewPatch) (*models.Review, error) {
	const op = "service.ReviewService.UpdateReview"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("reviewID", reviewID))

	if patch.Grade != nil && !models.ValidGrade(*patch.Grade) {
		return nil, fmt.Errorf("%s: %w", op, invalid("grade", "grade"))
	}

	review, err := s.ownReview(ctx, userID, reviewID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrForbidden) {
			logger.Error("failed to get review", slog.Any("error", err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Text != nil {
		review.Text = *patch.Text
	}
	if patch.Grade != nil {
		review.Grade = *patch.Grade
	}

	updated, err := s.reviewRepo.UpdateReview(ctx, review)
	if err != nil {
		if errors.Is(err, storage.ErrReviewNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to update review", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("review updated")
	return updated, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, userID, reviewID int64) error {
	const op = "service.ReviewService.DeleteReview"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("reviewID", reviewID))

	if _, err := s.ownReview(ctx, userID, reviewID); err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrForbidden) {
			logger.Error("failed to get review", slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.reviewRepo.DeleteReview(ctx, reviewID); err != nil {
		if errors.Is(err, storage.ErrReviewNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		logger.Error("failed to delete review", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("review deleted")
	return nil
}
