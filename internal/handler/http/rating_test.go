package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/event"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/repository"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/service"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/health"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/middleware"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockRatingRepository struct {
	mock.Mock
}

func (m *mockRatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *mockRatingRepository) Exists(ctx context.Context, shop, productID, clientID string) (bool, error) {
	args := m.Called(ctx, shop, productID, clientID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRatingRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Rating, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Rating), args.Error(1)
}

func (m *mockRatingRepository) Stats(ctx context.Context, shop, productID string) (repository.RatingStats, error) {
	args := m.Called(ctx, shop, productID)
	return args.Get(0).(repository.RatingStats), args.Error(1)
}

type mockOpenRatingRepository struct {
	mock.Mock
}

func (m *mockOpenRatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	args := m.Called(ctx, rating)
	return args.Error(0)
}

func (m *mockOpenRatingRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Rating, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Rating), args.Error(1)
}

func (m *mockOpenRatingRepository) Stats(ctx context.Context, shop, productID string) (repository.RatingStats, error) {
	args := m.Called(ctx, shop, productID)
	return args.Get(0).(repository.RatingStats), args.Error(1)
}

type mockTypedReviewRepository struct {
	mock.Mock
}

func (m *mockTypedReviewRepository) Create(ctx context.Context, review *domain.TypedReview) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockTypedReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.TypedReview, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.TypedReview), args.Error(1)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testEnv struct {
	router     http.Handler
	ratingRepo *mockRatingRepository
	openRepo   *mockOpenRatingRepository
	reviewRepo *mockTypedReviewRepository
}

func setupRouter(t *testing.T) *testEnv {
	return setupRouterWithCORS(t, middleware.DefaultCORSConfig())
}

func setupRouterWithCORS(t *testing.T, corsConfig middleware.CORSConfig) *testEnv {
	t.Helper()

	ratingRepo := new(mockRatingRepository)
	openRepo := new(mockOpenRatingRepository)
	reviewRepo := new(mockTypedReviewRepository)

	logger := testLogger()
	producer := event.NewProducer(nil, logger)
	ratingService := service.NewRatingService(ratingRepo, openRepo, producer, logger)
	reviewService := service.NewTypedReviewService(reviewRepo, producer, logger)

	router := NewRouter(ratingService, reviewService, health.NewHandler(), logger, corsConfig)

	return &testEnv{
		router:     router,
		ratingRepo: ratingRepo,
		openRepo:   openRepo,
		reviewRepo: reviewRepo,
	}
}

func doRequest(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ============================================================================
// POST /api/rating
// ============================================================================

func TestSubmitRating_JSON_Success(t *testing.T) {
	env := setupRouter(t)

	env.ratingRepo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(false, nil)
	env.ratingRepo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{Sum: 4, Count: 1}, nil)
	env.ratingRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/rating",
		strings.NewReader(`{"productId":"p1","shop":"s1","clientId":"c1","rating":5}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "Rating submitted successfully.", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, 4.5, data["avg_rating"])
}

func TestSubmitRating_Form_Success(t *testing.T) {
	env := setupRouter(t)

	env.ratingRepo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(false, nil)
	env.ratingRepo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{}, nil)
	env.ratingRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *domain.Rating) bool {
		return rt.Rating == 4
	})).Return(nil)

	form := url.Values{}
	form.Set("productId", "p1")
	form.Set("shop", "s1")
	form.Set("clientId", "c1")
	form.Set("rating", "4")

	req := httptest.NewRequest(http.MethodPost, "/api/rating", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
}

func TestSubmitRating_FormNonIntegerRejected(t *testing.T) {
	env := setupRouter(t)

	form := url.Values{}
	form.Set("productId", "p1")
	form.Set("shop", "s1")
	form.Set("clientId", "c1")
	form.Set("rating", "3.5")

	req := httptest.NewRequest(http.MethodPost, "/api/rating", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid rating. It must be an integer between 1 and 5.", body["message"])
	env.ratingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitRating_MissingFields(t *testing.T) {
	env := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rating",
		strings.NewReader(`{"productId":"p1","rating":5}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Missing data. Required data: productId, shop, rating, clientId", body["message"])
	env.ratingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitRating_OutOfRange(t *testing.T) {
	for _, rating := range []string{"0", "6"} {
		t.Run("rating "+rating, func(t *testing.T) {
			env := setupRouter(t)

			req := httptest.NewRequest(http.MethodPost, "/api/rating",
				strings.NewReader(`{"productId":"p1","shop":"s1","clientId":"c1","rating":`+rating+`}`))
			req.Header.Set("Content-Type", "application/json")

			rec := doRequest(env, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "Invalid rating. It must be an integer between 1 and 5.", body["message"])
			env.ratingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitRating_NonIntegerRejected(t *testing.T) {
	env := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rating",
		strings.NewReader(`{"productId":"p1","shop":"s1","clientId":"c1","rating":3.5}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid rating. It must be an integer between 1 and 5.", body["message"])
}

func TestSubmitRating_IntegralFloatAccepted(t *testing.T) {
	env := setupRouter(t)

	env.ratingRepo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(false, nil)
	env.ratingRepo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{}, nil)
	env.ratingRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *domain.Rating) bool {
		return rt.Rating == 3
	})).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/rating",
		strings.NewReader(`{"productId":"p1","shop":"s1","clientId":"c1","rating":3.0}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.ratingRepo.AssertExpectations(t)
}

func TestSubmitRating_InvalidJSON(t *testing.T) {
	env := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rating", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid JSON payload.", body["message"])
}

func TestSubmitRating_Duplicate(t *testing.T) {
	env := setupRouter(t)

	env.ratingRepo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(true, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/rating",
		strings.NewReader(`{"productId":"p1","shop":"s1","clientId":"c1","rating":5}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "You have already submitted a rating for this product.", body["message"])
	env.ratingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitRating_StorageErrorIsOpaque(t *testing.T) {
	env := setupRouter(t)

	env.ratingRepo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(false, errors.New("pq: relation does not exist"))

	req := httptest.NewRequest(http.MethodPost, "/api/rating",
		strings.NewReader(`{"productId":"p1","shop":"s1","clientId":"c1","rating":5}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "An error occurred while processing the rating.", body["message"])
	assert.NotContains(t, rec.Body.String(), "relation does not exist")
}

// ============================================================================
// POST /api/rating/open
// ============================================================================

func TestSubmitOpenRating_NoClientNeeded(t *testing.T) {
	env := setupRouter(t)

	env.openRepo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{}, nil)
	env.openRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/rating/open",
		strings.NewReader(`{"productId":"p1","shop":"s1","rating":5}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(env, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	env.ratingRepo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// GET /api/rating
// ============================================================================

func TestListRatings_Success(t *testing.T) {
	env := setupRouter(t)

	created := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	env.ratingRepo.On("List", mock.Anything, repository.ReviewFilter{Shop: "s1", ProductID: "p1"}).
		Return([]domain.Rating{
			{ID: "r1", Shop: "s1", ProductID: "p1", ClientID: "c1", Rating: 5, CreatedAt: created},
			{ID: "r2", Shop: "s1", ProductID: "p1", ClientID: "c2", Rating: 4, CreatedAt: created.Add(-time.Hour)},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/rating?productId=p1&shop=s1", nil)
	rec := doRequest(env, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	data := body["data"].(map[string]any)
	assert.Equal(t, 4.5, data["avg_rating"])
	reviews := data["reviews"].([]any)
	require.Len(t, reviews, 2)
	first := reviews[0].(map[string]any)
	assert.Equal(t, "r1", first["id"])
	assert.Equal(t, float64(5), first["rating"])
}

func TestListRatings_EmptyAverageIsZero(t *testing.T) {
	env := setupRouter(t)

	env.ratingRepo.On("List", mock.Anything, repository.ReviewFilter{Shop: "s1", ProductID: "p1"}).
		Return([]domain.Rating{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/rating?productId=p1&shop=s1", nil)
	rec := doRequest(env, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(0), data["avg_rating"])
}

func TestListRatings_ClientFilter(t *testing.T) {
	env := setupRouter(t)

	client := "c1"
	env.ratingRepo.On("List", mock.Anything, repository.ReviewFilter{Shop: "s1", ProductID: "p1", ClientID: &client}).
		Return([]domain.Rating{{ID: "r1", ClientID: "c1", Rating: 3}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/rating?productId=p1&shop=s1&client=c1", nil)
	rec := doRequest(env, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.ratingRepo.AssertExpectations(t)
}

func TestListRatings_MissingParams(t *testing.T) {
	for _, target := range []string{"/api/rating", "/api/rating?productId=p1", "/api/rating?shop=s1"} {
		t.Run(target, func(t *testing.T) {
			env := setupRouter(t)

			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := doRequest(env, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "Missing query parameters: productId and shop are required", body["message"])
		})
	}
}

func TestListRatings_StorageErrorIsOpaque(t *testing.T) {
	env := setupRouter(t)

	env.ratingRepo.On("List", mock.Anything, mock.Anything).
		Return([]domain.Rating(nil), errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/rating?productId=p1&shop=s1", nil)
	rec := doRequest(env, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "An error occurred while fetching the reviews.", body["message"])
}

// ============================================================================
// Router CORS wiring
// ============================================================================

func TestRouter_ConfiguredCORSOrigins(t *testing.T) {
	corsConfig := middleware.CORSConfig{
		AllowedOrigins: []string{"https://allowed.example.com"},
		Environment:    "production",
	}
	env := setupRouterWithCORS(t, corsConfig)
	env.ratingRepo.On("List", mock.Anything, mock.Anything).Return([]domain.Rating{}, nil)

	t.Run("allowed origin is echoed back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/rating?productId=p1&shop=s1", nil)
		req.Header.Set("Origin", "https://allowed.example.com")
		rec := doRequest(env, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://allowed.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin gets no allow header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/rating?productId=p1&shop=s1", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := doRequest(env, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
