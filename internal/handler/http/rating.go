package http

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/repository"
	"github.com/aniket22-Dev/Shopify-Review-App/internal/service"
	apperrors "github.com/aniket22-Dev/Shopify-Review-App/pkg/errors"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/httputil"
)

// RatingHandler handles HTTP requests for the rating endpoints.
type RatingHandler struct {
	service *service.RatingService
	logger  *slog.Logger
}

// NewRatingHandler creates a new rating HTTP handler.
func NewRatingHandler(svc *service.RatingService, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		service: svc,
		logger:  logger,
	}
}

// ratingPayload is the loosely-typed rating submission body. Rating is kept
// as a raw JSON value so a non-integer (3.5, "4") can be told apart from a
// malformed document and rejected with the invalid-rating message rather
// than a parse failure.
type ratingPayload struct {
	ProductID string          `json:"productId"`
	Shop      string          `json:"shop"`
	ClientID  string          `json:"clientId"`
	Rating    json.RawMessage `json:"rating"`
}

// ratingListData is the data section of the rating read response.
type ratingListData struct {
	Reviews   any     `json:"reviews"`
	AvgRating float64 `json:"avg_rating"`
}

// ratingSubmitData is the data section of the rating write response.
type ratingSubmitData struct {
	AvgRating float64 `json:"avg_rating"`
}

// parseSubmitInput decodes the request body into a SubmitRatingInput. The
// payload is accepted as JSON or as a URL-encoded form, selected by the
// declared content type; anything else falls back to form decoding.
func parseSubmitInput(w http.ResponseWriter, r *http.Request) (*service.SubmitRatingInput, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/json") {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
		var payload ratingPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return nil, apperrors.InvalidInput(service.MsgInvalidJSON)
		}
		return &service.SubmitRatingInput{
			ProductID: payload.ProductID,
			Shop:      payload.Shop,
			ClientID:  payload.ClientID,
			Rating:    intFromJSON(payload.Rating),
		}, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, apperrors.InvalidInput(service.MsgInvalidJSON)
	}
	return &service.SubmitRatingInput{
		ProductID: r.PostForm.Get("productId"),
		Shop:      r.PostForm.Get("shop"),
		ClientID:  r.PostForm.Get("clientId"),
		Rating:    intFromString(r.PostForm.Get("rating")),
	}, nil
}

// intFromJSON returns the integer value of a raw JSON number, or nil when the
// value is absent, non-numeric, or not an integer.
func intFromJSON(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return nil
	}
	return intFromString(num.String())
}

// intFromString parses a base-10 number with an integral value. Values with a
// fractional part ("3.5"), empty strings, and non-numeric input return nil;
// integral floats ("3.0", "3e0") are accepted.
func intFromString(s string) *int {
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// Submit handles POST /api/rating
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	input, err := parseSubmitInput(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, service.MsgRatingWriteFailed, h.logger)
		return
	}

	avgRating, err := h.service.Submit(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, service.MsgRatingWriteFailed, h.logger)
		return
	}

	httputil.WriteOK(w, service.MsgRatingSubmitted, ratingSubmitData{AvgRating: avgRating})
}

// SubmitOpen handles POST /api/rating/open
func (h *RatingHandler) SubmitOpen(w http.ResponseWriter, r *http.Request) {
	input, err := parseSubmitInput(w, r)
	if err != nil {
		httputil.WriteError(w, r, err, service.MsgRatingWriteFailed, h.logger)
		return
	}

	avgRating, err := h.service.SubmitOpen(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, service.MsgRatingWriteFailed, h.logger)
		return
	}

	httputil.WriteOK(w, service.MsgRatingSubmitted, ratingSubmitData{AvgRating: avgRating})
}

// List handles GET /api/rating
func (h *RatingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, ok := reviewFilterFromQuery(r)
	if !ok {
		httputil.Fail(w, http.StatusBadRequest, service.MsgMissingQueryParams)
		return
	}

	ratings, avgRating, err := h.service.ListWithAverage(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, service.MsgRatingReadFailed, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		OK:   true,
		Data: ratingListData{Reviews: ratings, AvgRating: avgRating},
	})
}

// ListOpen handles GET /api/rating/open
func (h *RatingHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	filter, ok := reviewFilterFromQuery(r)
	if !ok {
		httputil.Fail(w, http.StatusBadRequest, service.MsgMissingQueryParams)
		return
	}

	ratings, avgRating, err := h.service.ListOpenWithAverage(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, service.MsgRatingReadFailed, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		OK:   true,
		Data: ratingListData{Reviews: ratings, AvgRating: avgRating},
	})
}

// reviewFilterFromQuery extracts the shared read-side query parameters.
// productId and shop are required; client narrows the result set when set.
func reviewFilterFromQuery(r *http.Request) (repository.ReviewFilter, bool) {
	q := r.URL.Query()
	productID := q.Get("productId")
	shop := q.Get("shop")
	if productID == "" || shop == "" {
		return repository.ReviewFilter{}, false
	}

	filter := repository.ReviewFilter{
		Shop:      shop,
		ProductID: productID,
	}
	if client := q.Get("client"); client != "" {
		filter.ClientID = &client
	}

	return filter, true
}
