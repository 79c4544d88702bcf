package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/event"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/repository"
	apperrors "github.com/aniket22-Dev/Shopify-Review-App/pkg/errors"
)

// --- Mock repositories ---

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

// --- Test helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEventProducer returns a producer with no Kafka backend: publishing is a no-op.
func testEventProducer() *event.Producer {
	return event.NewProducer(nil, testLogger())
}

func newRatingService(repo *mockRatingRepository, openRepo *mockOpenRatingRepository) *RatingService {
	return NewRatingService(repo, openRepo, testEventProducer(), testLogger())
}

func intPtr(n int) *int { return &n }

// --- Submit ---

func TestSubmit_Success(t *testing.T) {
	repo := new(mockRatingRepository)
	svc := newRatingService(repo, new(mockOpenRatingRepository))

	repo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(false, nil)
	repo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{Sum: 6, Count: 2}, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(rt *domain.Rating) bool {
		return rt.Shop == "s1" && rt.ProductID == "p1" && rt.ClientID == "c1" &&
			rt.Rating == 3 && rt.ID != "" && !rt.CreatedAt.IsZero()
	})).Return(nil)

	avg, err := svc.Submit(context.Background(), &SubmitRatingInput{
		ProductID: "p1", Shop: "s1", ClientID: "c1", Rating: intPtr(3),
	})

	require.NoError(t, err)
	assert.Equal(t, 3.0, avg) // (6+3)/(2+1)
	repo.AssertExpectations(t)
}

func TestSubmit_FirstRating(t *testing.T) {
	repo := new(mockRatingRepository)
	svc := newRatingService(repo, new(mockOpenRatingRepository))

	repo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(false, nil)
	repo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	avg, err := svc.Submit(context.Background(), &SubmitRatingInput{
		ProductID: "p1", Shop: "s1", ClientID: "c1", Rating: intPtr(5),
	})

	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
}

func TestSubmit_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		input *SubmitRatingInput
	}{
		{"missing productId", &SubmitRatingInput{Shop: "s1", ClientID: "c1", Rating: intPtr(3)}},
		{"missing shop", &SubmitRatingInput{ProductID: "p1", ClientID: "c1", Rating: intPtr(3)}},
		{"missing clientId", &SubmitRatingInput{ProductID: "p1", Shop: "s1", Rating: intPtr(3)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRatingRepository)
			svc := newRatingService(repo, new(mockOpenRatingRepository))

			_, err := svc.Submit(context.Background(), tt.input)

			require.Error(t, err)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, MsgMissingRatingFields, appErr.Message)
			assert.Equal(t, 400, appErr.Status)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_InvalidRating(t *testing.T) {
	tests := []struct {
		name   string
		rating *int
	}{
		{"missing rating", nil},
		{"zero", intPtr(0)},
		{"above range", intPtr(6)},
		{"negative", intPtr(-2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRatingRepository)
			svc := newRatingService(repo, new(mockOpenRatingRepository))

			_, err := svc.Submit(context.Background(), &SubmitRatingInput{
				ProductID: "p1", Shop: "s1", ClientID: "c1", Rating: tt.rating,
			})

			require.Error(t, err)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, MsgInvalidRating, appErr.Message)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_Duplicate(t *testing.T) {
	repo := new(mockRatingRepository)
	svc := newRatingService(repo, new(mockOpenRatingRepository))

	repo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(true, nil)

	_, err := svc.Submit(context.Background(), &SubmitRatingInput{
		ProductID: "p1", Shop: "s1", ClientID: "c1", Rating: intPtr(4),
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, MsgDuplicateRating, appErr.Message)
	assert.Equal(t, 400, appErr.Status)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_RacedDuplicateOnInsert(t *testing.T) {
	repo := new(mockRatingRepository)
	svc := newRatingService(repo, new(mockOpenRatingRepository))

	// Pre-check passes, but a concurrent write landed first: the unique
	// index rejects the insert and the caller still sees the duplicate error.
	repo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(false, nil)
	repo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{Sum: 4, Count: 1}, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.ErrDuplicate)

	_, err := svc.Submit(context.Background(), &SubmitRatingInput{
		ProductID: "p1", Shop: "s1", ClientID: "c1", Rating: intPtr(4),
	})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, MsgDuplicateRating, appErr.Message)
	assert.Equal(t, 400, appErr.Status)
}

func TestSubmit_StorageError(t *testing.T) {
	repo := new(mockRatingRepository)
	svc := newRatingService(repo, new(mockOpenRatingRepository))

	repo.On("Exists", mock.Anything, "s1", "p1", "c1").Return(false, errors.New("connection refused"))

	_, err := svc.Submit(context.Background(), &SubmitRatingInput{
		ProductID: "p1", Shop: "s1", ClientID: "c1", Rating: intPtr(4),
	})

	require.Error(t, err)
	assert.Equal(t, 500, apperrors.HTTPStatus(err))
}

// --- SubmitOpen ---

func TestSubmitOpen_NoClientRequired(t *testing.T) {
	openRepo := new(mockOpenRatingRepository)
	svc := newRatingService(new(mockRatingRepository), openRepo)

	openRepo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{Sum: 5, Count: 1}, nil)
	openRepo.On("Create", mock.Anything, mock.MatchedBy(func(rt *domain.Rating) bool {
		return rt.ClientID == ""
	})).Return(nil)

	avg, err := svc.SubmitOpen(context.Background(), &SubmitRatingInput{
		ProductID: "p1", Shop: "s1", Rating: intPtr(4),
	})

	require.NoError(t, err)
	assert.Equal(t, 4.5, avg)
	openRepo.AssertExpectations(t)
}

func TestSubmitOpen_NoDuplicateCheck(t *testing.T) {
	openRepo := new(mockOpenRatingRepository)
	svc := newRatingService(new(mockRatingRepository), openRepo)

	openRepo.On("Stats", mock.Anything, "s1", "p1").Return(repository.RatingStats{}, nil).Twice()
	openRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()

	input := &SubmitRatingInput{ProductID: "p1", Shop: "s1", Rating: intPtr(4)}
	_, err := svc.SubmitOpen(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.SubmitOpen(context.Background(), input)
	require.NoError(t, err)
}

func TestSubmitOpen_MissingFields(t *testing.T) {
	svc := newRatingService(new(mockRatingRepository), new(mockOpenRatingRepository))

	_, err := svc.SubmitOpen(context.Background(), &SubmitRatingInput{Shop: "s1", Rating: intPtr(3)})

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, MsgMissingOpenFields, appErr.Message)
}

// --- ListWithAverage ---

func TestListWithAverage(t *testing.T) {
	repo := new(mockRatingRepository)
	svc := newRatingService(repo, new(mockOpenRatingRepository))

	filter := repository.ReviewFilter{Shop: "s1", ProductID: "p1"}
	repo.On("List", mock.Anything, filter).Return([]domain.Rating{
		{ID: "r1", Rating: 5},
		{ID: "r2", Rating: 4},
	}, nil)

	ratings, avg, err := svc.ListWithAverage(context.Background(), filter)

	require.NoError(t, err)
	assert.Len(t, ratings, 2)
	assert.Equal(t, 4.5, avg)
}

func TestListWithAverage_EmptyIsZero(t *testing.T) {
	repo := new(mockRatingRepository)
	svc := newRatingService(repo, new(mockOpenRatingRepository))

	filter := repository.ReviewFilter{Shop: "s1", ProductID: "p1"}
	repo.On("List", mock.Anything, filter).Return([]domain.Rating{}, nil)

	ratings, avg, err := svc.ListWithAverage(context.Background(), filter)

	require.NoError(t, err)
	assert.Empty(t, ratings)
	assert.Equal(t, 0.0, avg)
}

func TestListWithAverage_StorageError(t *testing.T) {
	repo := new(mockRatingRepository)
	svc := newRatingService(repo, new(mockOpenRatingRepository))

	filter := repository.ReviewFilter{Shop: "s1", ProductID: "p1"}
	repo.On("List", mock.Anything, filter).Return([]domain.Rating(nil), errors.New("connection refused"))

	_, _, err := svc.ListWithAverage(context.Background(), filter)
	require.Error(t, err)
	assert.Equal(t, 500, apperrors.HTTPStatus(err))
}
