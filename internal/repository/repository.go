package repository

import (
	"context"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
)

// ReviewFilter defines the lookup scope shared by both stores: shop and
// product are always required, client narrows the result set when set.
type ReviewFilter struct {
	Shop      string
	ProductID string
	ClientID  *string
}

// RatingStats is a pre-insert snapshot of the ratings for a (shop, product)
// pair, used to combine the new score into a projected average.
type RatingStats struct {
	Sum   int
	Count int
}

// RatingRepository defines persistence operations for numeric ratings.
type RatingRepository interface {
	// Create inserts a new rating. For the deduplicating store it returns
	// errors.ErrDuplicate when a rating for the same (shop, product, client)
	// triple already exists.
	Create(ctx context.Context, rating *domain.Rating) error

	// Exists reports whether a rating exists for the (shop, product, client)
	// triple.
	Exists(ctx context.Context, shop, productID, clientID string) (bool, error)

	// List returns ratings matching the filter, newest first.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Rating, error)

	// Stats returns the sum and count of ratings for the (shop, product) pair.
	Stats(ctx context.Context, shop, productID string) (RatingStats, error)
}

// OpenRatingRepository defines persistence operations for the open rating
// variant, which carries no client identity and performs no deduplication.
type OpenRatingRepository interface {
	Create(ctx context.Context, rating *domain.Rating) error
	List(ctx context.Context, filter ReviewFilter) ([]domain.Rating, error)
	Stats(ctx context.Context, shop, productID string) (RatingStats, error)
}

// TypedReviewRepository defines persistence operations for free-text reviews.
type TypedReviewRepository interface {
	// Create inserts a new typed review.
	Create(ctx context.Context, review *domain.TypedReview) error

	// List returns typed reviews matching the filter, newest first.
	List(ctx context.Context, filter ReviewFilter) ([]domain.TypedReview, error)
}
