package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	e "github.com/gartstein/companyemployees/internal/company/errors"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorDetails is the body of every error response.
type ErrorDetails struct {
	StatusCode int                 `json:"statusCode"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// errorWriter maps service errors to HTTP responses.
type errorWriter struct {
	logger *zap.Logger
}

func (ew errorWriter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	details := ErrorDetails{StatusCode: status, Message: err.Error()}

	var appErr *e.Error
	if errors.As(err, &appErr) {
		details.Message = appErr.Message
		details.Errors = appErr.Fields
	}
	if status == http.StatusInternalServerError {
		ew.logger.Error("Something went wrong",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
		details = ErrorDetails{StatusCode: status, Message: "Internal Server Error."}
	}
	writeJSON(w, status, details)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, e.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, e.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, e.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("Request served",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
