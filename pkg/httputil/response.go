package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/aniket22-Dev/Shopify-Review-App/pkg/errors"
	"github.com/aniket22-Dev/Shopify-Review-App/pkg/logger"
)

// Envelope is the standard JSON response shape shared by every endpoint:
// success responses carry ok=true plus payload fields, failures carry ok=false
// and a message.
type Envelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteOK writes a 200 success envelope with the given message and data.
func WriteOK(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{OK: true, Message: message, Data: data})
}

// Fail writes an {ok:false, message} envelope with the given status.
func Fail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{OK: false, Message: message})
}

// WriteError writes a standardized failure envelope based on the error type.
// Validation and duplicate-submission errors surface their own message with the
// 400 status class. Anything else is treated as a storage/internal failure:
// the full error is logged server-side and the caller sees only the opaque
// message supplied by the endpoint. It prefers the request-scoped logger from
// context (set by the RequestLogger middleware) over the fallback logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, opaque string, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	status := apperrors.HTTPStatus(err)
	if status < http.StatusInternalServerError {
		message := err.Error()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		Fail(w, status, message)
		return
	}

	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	Fail(w, status, opaque)
}
