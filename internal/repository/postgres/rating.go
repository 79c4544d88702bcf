package postgres

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/aniket22-Dev/Shopify-Review-App/pkg/errors"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/repository"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/database"
)

// RatingRepository implements repository.RatingRepository using PostgreSQL.
// The ratings table carries a unique index on (shop, product_id, client_id),
// so a concurrent duplicate that slips past the pre-check still fails at
// insert time with a unique violation.
type RatingRepository struct {
	db database.DBTX
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(db database.DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create inserts a new rating. A unique violation on the (shop, product_id,
// client_id) index is surfaced as ErrDuplicate.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, shop, product_id, client_id, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		rating.ID,
		rating.Shop,
		rating.ProductID,
		rating.ClientID,
		rating.Rating,
		rating.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("insert rating: %w", err)
	}

	return nil
}

// Exists reports whether a rating exists for the (shop, product, client) triple.
func (r *RatingRepository) Exists(ctx context.Context, shop, productID, clientID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ratings
			WHERE shop = $1 AND product_id = $2 AND client_id = $3
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, shop, productID, clientID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check rating exists: %w", err)
	}

	return exists, nil
}

// List returns ratings matching the filter, newest first.
func (r *RatingRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Rating, error) {
	return listRatings(ctx, r.db, "ratings", filter)
}

// Stats returns the sum and count of ratings for the (shop, product) pair.
func (r *RatingRepository) Stats(ctx context.Context, shop, productID string) (repository.RatingStats, error) {
	return ratingStats(ctx, r.db, "ratings", shop, productID)
}

// listRatings is shared by the deduplicating and open rating tables, which
// have identical shapes.
func listRatings(ctx context.Context, db database.DBTX, table string, filter repository.ReviewFilter) ([]domain.Rating, error) {
	var (
		conditions = []string{"shop = $1", "product_id = $2"}
		args       = []any{filter.Shop, filter.ProductID}
	)

	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)+1))
		args = append(args, *filter.ClientID)
	}

	query := fmt.Sprintf(`
		SELECT id, shop, product_id, client_id, rating, created_at
		FROM %s
		WHERE %s
		ORDER BY created_at DESC`,
		table, strings.Join(conditions, " AND "),
	)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.Rating
	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(&rt.ID, &rt.Shop, &rt.ProductID, &rt.ClientID, &rt.Rating, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating rows: %w", err)
	}

	if ratings == nil {
		ratings = []domain.Rating{}
	}

	return ratings, nil
}

func ratingStats(ctx context.Context, db database.DBTX, table string, shop, productID string) (repository.RatingStats, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(rating), 0), COUNT(*)
		FROM %s
		WHERE shop = $1 AND product_id = $2`,
		table,
	)

	var stats repository.RatingStats
	if err := db.QueryRow(ctx, query, shop, productID).Scan(&stats.Sum, &stats.Count); err != nil {
		return repository.RatingStats{}, fmt.Errorf("rating stats: %w", err)
	}

	return stats, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
