package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/httpclient"
)

// Product is the catalog record consumed by the aggregation client.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UpdatedAt   string `json:"updatedAt"`
}

// Catalog lists the products to aggregate reviews for. The product catalog is
// an external collaborator (the merchant admin's product listing); only its
// read interface is consumed here.
type Catalog interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// TableRow is one display row of the combined review table: one row per typed
// review, carrying the product's average rating and the reviewer's own score
// where a rating row matched (0 otherwise).
type TableRow struct {
	ProductTitle      string
	AvgRating         float64
	Score             int
	CreatedAt         string
	LoggedIn          string
	RatingDescription string
}

// Client aggregates the two review resources per product. Fetches go through
// the retrying, circuit-broken HTTP client; per-product failures degrade to
// an average of 0 and an empty review list rather than failing the table.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	shop    string
	logger  *slog.Logger
}

// NewClient creates a new aggregation client. baseURL is the review service
// root (e.g. "http://localhost:8010"); shop scopes every fetch.
func NewClient(http *httpclient.CircuitBreakerClient, baseURL, shop string, logger *slog.Logger) *Client {
	return &Client{
		http:    http,
		baseURL: baseURL,
		shop:    shop,
		logger:  logger,
	}
}

// ratingReadResponse mirrors the rating read endpoint envelope.
type ratingReadResponse struct {
	OK   bool `json:"ok"`
	Data struct {
		Reviews   []domain.Rating `json:"reviews"`
		AvgRating float64         `json:"avg_rating"`
	} `json:"data"`
}

// reviewReadResponse mirrors the typed review read endpoint envelope.
type reviewReadResponse struct {
	OK      bool                 `json:"ok"`
	Reviews []domain.TypedReview `json:"reviews"`
}

// FetchRatings fetches the rating rows and average for a product, degrading
// to an empty list and 0 on any failure.
func (c *Client) FetchRatings(ctx context.Context, productID string) ([]domain.Rating, float64) {
	u := fmt.Sprintf("%s/api/rating?productId=%s&shop=%s",
		c.baseURL, url.QueryEscape(productID), url.QueryEscape(c.shop))

	var parsed ratingReadResponse
	if err := c.getJSON(ctx, u, &parsed); err != nil {
		c.logger.WarnContext(ctx, "rating fetch failed, defaulting to 0",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return nil, 0
	}

	return parsed.Data.Reviews, parsed.Data.AvgRating
}

// FetchTypedReviews fetches the typed reviews for a product, optionally
// filtered by client identity, degrading to an empty list on any failure.
func (c *Client) FetchTypedReviews(ctx context.Context, productID, clientID string) []domain.TypedReview {
	params := url.Values{}
	params.Set("productId", productID)
	params.Set("shop", c.shop)
	if clientID != "" {
		params.Set("client", clientID)
	}
	u := fmt.Sprintf("%s/api/review?%s", c.baseURL, params.Encode())

	var parsed reviewReadResponse
	if err := c.getJSON(ctx, u, &parsed); err != nil {
		c.logger.WarnContext(ctx, "typed review fetch failed, defaulting to empty",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	return parsed.Reviews
}

// BuildTable fetches both resources for every catalog product and builds the
// combined display rows: one row per typed review, carrying the product's
// average rating and the review's merged score. Products with no typed reviews
// are skipped. Products are fetched concurrently; row order follows catalog
// order.
func (c *Client) BuildTable(ctx context.Context, catalog Catalog, clientID string) ([]TableRow, error) {
	products, err := catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	perProduct := make([][]TableRow, len(products))

	var wg sync.WaitGroup
	for i, product := range products {
		wg.Add(1)
		go func(i int, product Product) {
			defer wg.Done()

			productID := ProductNumericID(product.ID)
			ratings, avgRating := c.FetchRatings(ctx, productID)
			reviews := c.FetchTypedReviews(ctx, productID, clientID)

			rows := make([]TableRow, 0, len(reviews))
			for _, mr := range MergeReviews(reviews, ratings) {
				rows = append(rows, TableRow{
					ProductTitle:      product.Title,
					AvgRating:         avgRating,
					Score:             mr.Score,
					CreatedAt:         mr.Review.CreatedAt.Format(time.RFC3339),
					LoggedIn:          mr.Review.LoggedIn,
					RatingDescription: mr.Review.RatingDescription,
				})
			}
			perProduct[i] = rows
		}(i, product)
	}
	wg.Wait()

	var table []TableRow
	for _, rows := range perProduct {
		table = append(table, rows...)
	}

	return table, nil
}

// getJSON performs a GET through the circuit breaker and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, u string, dst any) error {
	resp, err := c.http.Get(ctx, u)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return httpclient.ParseResponseError(resp, "reviews")
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
