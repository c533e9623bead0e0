// Package middleware provides HTTP middleware for the life manager API.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OscarCarPu/life-manager/internal/logging"
)

// RequestIDHeader carries the per-request trace id
const RequestIDHeader = "X-Request-ID"

// LoggingMiddleware provides request/response logging capabilities
type LoggingMiddleware struct {
	logger logging.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger logging.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &LoggingMiddleware{
		logger: logger.WithComponent("http"),
	}
}

// Handler returns the logging middleware handler
func (lm *LoggingMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Generate request ID if not present
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			// The request id doubles as the trace id for downstream logs
			ctx := logging.WithTraceID(r.Context(), requestID)
			r = r.WithContext(ctx)
			w.Header().Set(RequestIDHeader, requestID)

			wrapper := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapper, r)

			if isProbe(r.URL.Path) {
				return
			}

			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapper.statusCode,
				"duration", time.Since(start).String(),
				"remote", r.RemoteAddr,
			}
			switch {
			case wrapper.statusCode >= 500:
				lm.logger.ErrorContext(ctx, "request failed", fields...)
			case wrapper.statusCode >= 400:
				lm.logger.WarnContext(ctx, "request rejected", fields...)
			default:
				lm.logger.InfoContext(ctx, "request served", fields...)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.wroteHeader {
		rw.statusCode = statusCode
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

// isProbe reports health endpoints, which are not logged
func isProbe(path string) bool {
	path = strings.TrimPrefix(path, "/api/v1")
	switch path {
	case "/health", "/readiness", "/liveness", "/ping":
		return true
	}
	return false
}
