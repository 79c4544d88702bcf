package middleware

import (
	"log/slog"
	"net/http"

	"github.com/aniket22-Dev/Shopify-Review-App/pkg/logger"
)

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, shop, client_id, trace_id, and span_id, then stores it
// in context via logger.NewContext. Downstream handlers retrieve it with
// logger.FromContext(ctx).
//
// This middleware should be mounted AFTER RequestLogging (which sets
// correlation_id) and Tracing (which sets the OpenTelemetry span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// The shop and client come in as query parameters on every read
			// endpoint; pick them up so error logs carry the tenant.
			if shop := r.URL.Query().Get("shop"); shop != "" {
				ctx = logger.WithShop(ctx, shop)
			}
			if client := r.URL.Query().Get("client"); client != "" {
				ctx = logger.WithClientID(ctx, client)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
