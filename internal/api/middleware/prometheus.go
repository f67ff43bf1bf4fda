package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/finder/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Prometheus records HTTP request duration and count under the matched route
// pattern.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		path := routePattern(r)
		status := strconv.Itoa(rec.statusCode())
		metrics.RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// routePattern is the chi pattern that matched r, or "unknown". Labels use it
// instead of the raw path to keep cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
