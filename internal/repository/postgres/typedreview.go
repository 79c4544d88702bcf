package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/repository"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/database"
)

// TypedReviewRepository implements repository.TypedReviewRepository using
// PostgreSQL. Typed reviews carry no uniqueness constraint: a client may
// submit any number of reviews for the same product.
type TypedReviewRepository struct {
	db database.DBTX
}

// NewTypedReviewRepository creates a new PostgreSQL-backed typed review repository.
func NewTypedReviewRepository(db database.DBTX) *TypedReviewRepository {
	return &TypedReviewRepository{db: db}
}

// Create inserts a new typed review.
func (r *TypedReviewRepository) Create(ctx context.Context, review *domain.TypedReview) error {
	query := `
		INSERT INTO typed_reviews (id, shop, product_id, client_id, rating_description, logged_in, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		review.ID,
		review.Shop,
		review.ProductID,
		review.ClientID,
		review.RatingDescription,
		review.LoggedIn,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert typed review: %w", err)
	}

	return nil
}

// List returns typed reviews matching the filter, newest first.
func (r *TypedReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.TypedReview, error) {
	var (
		conditions = []string{"shop = $1", "product_id = $2"}
		args       = []any{filter.Shop, filter.ProductID}
	)

	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", len(args)+1))
		args = append(args, *filter.ClientID)
	}

	query := fmt.Sprintf(`
		SELECT id, shop, product_id, client_id, rating_description, logged_in, created_at
		FROM typed_reviews
		WHERE %s
		ORDER BY created_at DESC`,
		strings.Join(conditions, " AND "),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list typed reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.TypedReview
	for rows.Next() {
		var tr domain.TypedReview
		if err := rows.Scan(&tr.ID, &tr.Shop, &tr.ProductID, &tr.ClientID, &tr.RatingDescription, &tr.LoggedIn, &tr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan typed review row: %w", err)
		}
		reviews = append(reviews, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate typed review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.TypedReview{}
	}

	return reviews, nil
}
