package postgres

import (
	"context"
	"fmt"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/repository"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/database"
)

// OpenRatingRepository implements repository.OpenRatingRepository using
// PostgreSQL. The open_ratings table has no client column and no uniqueness
// constraint, so the same product can be rated any number of times.
type OpenRatingRepository struct {
	db database.DBTX
}

// NewOpenRatingRepository creates a new PostgreSQL-backed open rating repository.
func NewOpenRatingRepository(db database.DBTX) *OpenRatingRepository {
	return &OpenRatingRepository{db: db}
}

// Create inserts a new open rating.
func (r *OpenRatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO open_ratings (id, shop, product_id, rating, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		rating.ID,
		rating.Shop,
		rating.ProductID,
		rating.Rating,
		rating.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert open rating: %w", err)
	}

	return nil
}

// List returns open ratings matching the filter, newest first. The client
// filter is ignored since the table carries no client column.
func (r *OpenRatingRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Rating, error) {
	query := `
		SELECT id, shop, product_id, rating, created_at
		FROM open_ratings
		WHERE shop = $1 AND product_id = $2
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, filter.Shop, filter.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list open ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(&rt.ID, &rt.Shop, &rt.ProductID, &rt.Rating, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan open rating row: %w", err)
		}
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate open rating rows: %w", err)
	}

	if ratings == nil {
		ratings = []domain.Rating{}
	}

	return ratings, nil
}

// Stats returns the sum and count of open ratings for the (shop, product) pair.
func (r *OpenRatingRepository) Stats(ctx context.Context, shop, productID string) (repository.RatingStats, error) {
	return ratingStats(ctx, r.db, "open_ratings", shop, productID)
}
