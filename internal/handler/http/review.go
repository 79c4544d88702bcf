package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/domain"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/service"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/httputil"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/validator"
)

// TypedReviewHandler handles HTTP requests for the typed review endpoints.
type TypedReviewHandler struct {
	service *service.TypedReviewService
	logger  *slog.Logger
}

// NewTypedReviewHandler creates a new typed review HTTP handler.
func NewTypedReviewHandler(svc *service.TypedReviewService, logger *slog.Logger) *TypedReviewHandler {
	return &TypedReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateTypedReviewRequest is the JSON request body for creating a typed review.
type CreateTypedReviewRequest struct {
	ProductID         string `json:"productId" validate:"required"`
	Shop              string `json:"shop" validate:"required"`
	ClientID          string `json:"clientId" validate:"required"`
	RatingDescription string `json:"ratingDescription" validate:"required"`
	LoggedIn          string `json:"loggedIn" validate:"required"`
}

// reviewResponse is the single-record envelope returned by the write endpoint.
type reviewResponse struct {
	OK     bool               `json:"ok"`
	Review *domain.TypedReview `json:"review"`
}

// reviewsResponse is the list envelope returned by the read endpoint.
type reviewsResponse struct {
	OK      bool                 `json:"ok"`
	Reviews []domain.TypedReview `json:"reviews"`
}

// Create handles POST /api/review. Unlike ratings, the body must be JSON:
// there is no form fallback.
func (h *TypedReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		httputil.Fail(w, http.StatusBadRequest, service.MsgInvalidContentType)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req CreateTypedReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Fail(w, http.StatusBadRequest, service.MsgInvalidJSON)
		return
	}

	if err := validator.Validate(req); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			httputil.Fail(w, http.StatusBadRequest, service.MsgMissingTypedReviewFields)
			return
		}
		httputil.WriteError(w, r, err, service.MsgTypedReviewWriteFailed, h.logger)
		return
	}

	review, err := h.service.Create(r.Context(), &service.CreateTypedReviewInput{
		ProductID:         req.ProductID,
		Shop:              req.Shop,
		ClientID:          req.ClientID,
		RatingDescription: req.RatingDescription,
		LoggedIn:          req.LoggedIn,
	})
	if err != nil {
		httputil.WriteError(w, r, err, service.MsgTypedReviewWriteFailed, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, reviewResponse{OK: true, Review: review})
}

// List handles GET /api/review. The response allows cross-origin reads so the
// storefront widget can poll it directly.
func (h *TypedReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	filter, ok := reviewFilterFromQuery(r)
	if !ok {
		httputil.Fail(w, http.StatusBadRequest, service.MsgMissingQueryParams)
		return
	}

	reviews, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, service.MsgTypedReviewReadFailed, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reviewsResponse{OK: true, Reviews: reviews})
}
