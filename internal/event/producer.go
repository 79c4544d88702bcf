package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	pkgkafka "github.com/aniket22-Dev/Shopify-Review-App/pkg/kafka"
	pkglogger "github.com/aniket22-Dev/Shopify-Review-App/pkg/logger"
)

// Kafka topic constants for review domain events.
const (
	TopicRatingSubmitted    = "reviews.rating.submitted"
	TopicTypedReviewCreated = "reviews.typed_review.created"
)

// Aggregate type constants.
const (
	AggregateTypeRating      = "rating"
	AggregateTypeTypedReview = "typed_review"
)

// Source identifier for events originating from this service.
const SourceReviewsService = "reviews-service"

// RatingSubmittedData is the payload for a rating.submitted event.
type RatingSubmittedData struct {
	ID        string  `json:"id"`
	Shop      string  `json:"shop"`
	ProductID string  `json:"product_id"`
	ClientID  string  `json:"client_id,omitempty"`
	Rating    int     `json:"rating"`
	AvgRating float64 `json:"avg_rating"`
}

// TypedReviewCreatedData is the payload for a typed_review.created event.
type TypedReviewCreatedData struct {
	ID        string `json:"id"`
	Shop      string `json:"shop"`
	ProductID string `json:"product_id"`
	ClientID  string `json:"client_id"`
	LoggedIn  string `json:"logged_in"`
}

// Producer publishes review domain events to Kafka. Publishing is best
// effort: a nil Producer or a nil underlying producer is a no-op, and
// callers log rather than propagate publish failures so the request path
// never depends on the broker.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer. The kafka producer may be nil
// when event publishing is disabled.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishRatingSubmitted publishes a rating.submitted event.
func (p *Producer) PublishRatingSubmitted(ctx context.Context, rating *domain.Rating, avgRating float64) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := RatingSubmittedData{
		ID:        rating.ID,
		Shop:      rating.Shop,
		ProductID: rating.ProductID,
		ClientID:  rating.ClientID,
		Rating:    rating.Rating,
		AvgRating: avgRating,
	}

	event, err := pkgkafka.NewEvent(TopicRatingSubmitted, rating.ID, AggregateTypeRating, SourceReviewsService, data)
	if err != nil {
		return fmt.Errorf("create rating.submitted event: %w", err)
	}
	event.WithCorrelationID(pkglogger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicRatingSubmitted, event); err != nil {
		return fmt.Errorf("publish rating.submitted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published rating.submitted event",
		slog.String("rating_id", rating.ID),
		slog.String("shop", rating.Shop),
		slog.String("product_id", rating.ProductID),
	)

	return nil
}

// PublishTypedReviewCreated publishes a typed_review.created event.
func (p *Producer) PublishTypedReviewCreated(ctx context.Context, review *domain.TypedReview) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	data := TypedReviewCreatedData{
		ID:        review.ID,
		Shop:      review.Shop,
		ProductID: review.ProductID,
		ClientID:  review.ClientID,
		LoggedIn:  review.LoggedIn,
	}

	event, err := pkgkafka.NewEvent(TopicTypedReviewCreated, review.ID, AggregateTypeTypedReview, SourceReviewsService, data)
	if err != nil {
		return fmt.Errorf("create typed_review.created event: %w", err)
	}
	event.WithCorrelationID(pkglogger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicTypedReviewCreated, event); err != nil {
		return fmt.Errorf("publish typed_review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published typed_review.created event",
		slog.String("review_id", review.ID),
		slog.String("shop", review.Shop),
		slog.String("product_id", review.ProductID),
	)

	return nil
}
