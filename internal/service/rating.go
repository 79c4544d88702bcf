package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/event"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/repository"
	apperrors "github.com/aniket22-Dev/Shopify-Review-App/pkg/errors"
)

// Caller-facing messages for the rating endpoints. The storefront widget
// renders these verbatim, so they are part of the API contract.
const (
	MsgMissingRatingFields = "Missing data. Required data: productId, shop, rating, clientId"
	MsgMissingOpenFields   = "Missing data. Required data: productId, shop, rating"
	MsgInvalidRating       = "Invalid rating. It must be an integer between 1 and 5."
	MsgDuplicateRating     = "You have already submitted a rating for this product."
	MsgRatingSubmitted     = "Rating submitted successfully."
	MsgRatingWriteFailed   = "An error occurred while processing the rating."
	MsgRatingReadFailed    = "An error occurred while fetching the reviews."
	MsgMissingQueryParams  = "Missing query parameters: productId and shop are required"
)

// SubmitRatingInput holds the parsed rating submission. Rating is nil when
// the payload carried no rating or a non-integer value; the distinction from
// an out-of-range integer is collapsed into the same invalid-rating failure.
type SubmitRatingInput struct {
	ProductID string
	Shop      string
	ClientID  string
	Rating    *int
}

// RatingService implements the business logic for the deduplicating and open
// rating stores. Both variants share validation and the projected-average
// write; only the client identity requirement and duplicate check differ.
type RatingService struct {
	repo     repository.RatingRepository
	openRepo repository.OpenRatingRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(
	repo repository.RatingRepository,
	openRepo repository.OpenRatingRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *RatingService {
	return &RatingService{
		repo:     repo,
		openRepo: openRepo,
		producer: producer,
		logger:   logger,
	}
}

// Submit validates and stores a deduplicated rating, returning the projected
// average. Validation order: required fields, then the integer range, then
// the duplicate lookup. The average combines the pre-insert snapshot with the
// new score arithmetically rather than re-querying after the insert.
func (s *RatingService) Submit(ctx context.Context, input *SubmitRatingInput) (float64, error) {
	if input.ProductID == "" || input.Shop == "" || input.ClientID == "" {
		return 0, apperrors.InvalidInput(MsgMissingRatingFields)
	}
	if input.Rating == nil || !domain.IsValidRating(*input.Rating) {
		return 0, apperrors.InvalidInput(MsgInvalidRating)
	}

	exists, err := s.repo.Exists(ctx, input.Shop, input.ProductID, input.ClientID)
	if err != nil {
		return 0, fmt.Errorf("check existing rating: %w", err)
	}
	if exists {
		return 0, apperrors.Duplicate(MsgDuplicateRating)
	}

	stats, err := s.repo.Stats(ctx, input.Shop, input.ProductID)
	if err != nil {
		return 0, fmt.Errorf("rating snapshot: %w", err)
	}
	avgRating := domain.ProjectedAverage(stats.Sum, stats.Count, *input.Rating)

	rating := &domain.Rating{
		ID:        uuid.New().String(),
		Shop:      input.Shop,
		ProductID: input.ProductID,
		ClientID:  input.ClientID,
		Rating:    *input.Rating,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, rating); err != nil {
		// The unique index catches the duplicate the pre-check raced past.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return 0, apperrors.Duplicate(MsgDuplicateRating)
		}
		return 0, fmt.Errorf("store rating: %w", err)
	}

	if err := s.producer.PublishRatingSubmitted(ctx, rating, avgRating); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating.submitted event",
			slog.String("rating_id", rating.ID),
			slog.String("error", err.Error()),
		)
	}

	return avgRating, nil
}

// SubmitOpen validates and stores an open rating. No client identity is
// required and no duplicate check is performed.
func (s *RatingService) SubmitOpen(ctx context.Context, input *SubmitRatingInput) (float64, error) {
	if input.ProductID == "" || input.Shop == "" {
		return 0, apperrors.InvalidInput(MsgMissingOpenFields)
	}
	if input.Rating == nil || !domain.IsValidRating(*input.Rating) {
		return 0, apperrors.InvalidInput(MsgInvalidRating)
	}

	stats, err := s.openRepo.Stats(ctx, input.Shop, input.ProductID)
	if err != nil {
		return 0, fmt.Errorf("open rating snapshot: %w", err)
	}
	avgRating := domain.ProjectedAverage(stats.Sum, stats.Count, *input.Rating)

	rating := &domain.Rating{
		ID:        uuid.New().String(),
		Shop:      input.Shop,
		ProductID: input.ProductID,
		Rating:    *input.Rating,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.openRepo.Create(ctx, rating); err != nil {
		return 0, fmt.Errorf("store open rating: %w", err)
	}

	if err := s.producer.PublishRatingSubmitted(ctx, rating, avgRating); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish rating.submitted event",
			slog.String("rating_id", rating.ID),
			slog.String("error", err.Error()),
		)
	}

	return avgRating, nil
}

// ListWithAverage returns ratings matching the filter, newest first, plus the
// stored average. The average of an empty result set is 0.
func (s *RatingService) ListWithAverage(ctx context.Context, filter repository.ReviewFilter) ([]domain.Rating, float64, error) {
	ratings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}

	return ratings, domain.AverageRating(ratings), nil
}

// ListOpenWithAverage is the read side of the open rating variant.
func (s *RatingService) ListOpenWithAverage(ctx context.Context, filter repository.ReviewFilter) ([]domain.Rating, float64, error) {
	ratings, err := s.openRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list open ratings: %w", err)
	}

	return ratings, domain.AverageRating(ratings), nil
}
