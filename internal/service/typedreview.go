package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/event"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/repository"
	apperrors "github.com/aniket22-Dev/Shopify-Review-App/pkg/errors"
)

// Caller-facing messages for the typed review endpoints.
const (
	MsgInvalidContentType       = "Invalid Content-Type. Expected application/json."
	MsgInvalidJSON              = "Invalid JSON payload."
	MsgMissingTypedReviewFields = "Missing fields: productId, shop, ratingDescription, and loggedIn are required."
	MsgTypedReviewWriteFailed   = "An error occurred while creating the typed review."
	MsgTypedReviewReadFailed    = "An error occurred while fetching the typed reviews."
)

// CreateTypedReviewInput holds the parsed typed review submission.
type CreateTypedReviewInput struct {
	ProductID         string
	Shop              string
	ClientID          string
	RatingDescription string
	LoggedIn          string
}

// TypedReviewService implements the business logic for free-text reviews.
// Unlike ratings, typed reviews have no duplicate check: a client may submit
// unlimited reviews per product.
type TypedReviewService struct {
	repo     repository.TypedReviewRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewTypedReviewService creates a new typed review service.
func NewTypedReviewService(repo repository.TypedReviewRepository, producer *event.Producer, logger *slog.Logger) *TypedReviewService {
	return &TypedReviewService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// Create validates and stores a typed review, returning the created record
// with its generated id and timestamp.
func (s *TypedReviewService) Create(ctx context.Context, input *CreateTypedReviewInput) (*domain.TypedReview, error) {
	if input.ProductID == "" || input.Shop == "" || input.RatingDescription == "" || input.LoggedIn == "" || input.ClientID == "" {
		return nil, apperrors.InvalidInput(MsgMissingTypedReviewFields)
	}

	review := &domain.TypedReview{
		ID:                uuid.New().String(),
		Shop:              input.Shop,
		ProductID:         input.ProductID,
		ClientID:          input.ClientID,
		RatingDescription: input.RatingDescription,
		LoggedIn:          input.LoggedIn,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("store typed review: %w", err)
	}

	if err := s.producer.PublishTypedReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish typed_review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return review, nil
}

// List returns typed reviews matching the filter, newest first.
func (s *TypedReviewService) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.TypedReview, error) {
	reviews, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list typed reviews: %w", err)
	}

	return reviews, nil
}
