package api

import (
	"net/http"
	"strconv"
	"time"

	"stockup/observability"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests no route matched, so stray paths
// (and every ticker a client types) cannot grow the label set.
const unmatchedRoute = "unmatched"

// responseWriter records the status code and body size of a response
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	size, err := rw.ResponseWriter.Write(b)
	rw.responseSize += size
	return size, err
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routeLabel returns the matched chi pattern, e.g. /api/stocks/{symbol}/score
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unmatchedRoute
}

// MetricsMiddleware records HTTP metrics and logs each request.
// Server errors are logged at warn level, everything else at debug.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		route := routeLabel(r)
		duration := time.Since(start)

		observability.GetMetrics().RecordHTTPRequest(r.Method, route,
			strconv.Itoa(wrapped.statusCode), duration, wrapped.responseSize)

		if route == "/metrics" {
			return
		}
		logger := observability.WithContext(r.Context())
		args := []any{
			"method", r.Method,
			"route", route,
			"status", wrapped.statusCode,
			"duration_ms", duration.Milliseconds(),
			"htmx", isHTMXRequest(r),
		}
		if wrapped.statusCode >= http.StatusInternalServerError {
			logger.Warn("request completed with server error", args...)
		} else {
			logger.Debug("request completed", args...)
		}
	})
}
