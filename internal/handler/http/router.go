package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aniket22-Dev/Shopify-Review-App/internal/service"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/health"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/middleware"
)

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	ratingService *service.RatingService,
	typedReviewService *service.TypedReviewService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig middleware.CORSConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Tracing("reviews"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("reviews"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	ratingHandler := NewRatingHandler(ratingService, logger)
	reviewHandler := NewTypedReviewHandler(typedReviewService, logger)

	r.Route("/api/rating", func(r chi.Router) {
		r.Post("/", ratingHandler.Submit)
		r.Get("/", ratingHandler.List)

		// Open variant: no client identity, no duplicate check.
		r.Post("/open", ratingHandler.SubmitOpen)
		r.Get("/open", ratingHandler.ListOpen)
	})

	r.Route("/api/review", func(r chi.Router) {
		r.Post("/", reviewHandler.Create)
		r.Get("/", reviewHandler.List)
	})

	return r
}
