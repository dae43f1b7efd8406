package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/inkwell-cms/backend/internal/metrics"
)

// NewMetrics returns a middleware that counts every handled request into the
// Prometheus HTTPRequests counter, labeled by method, chi route pattern, and
// status code. The route pattern (e.g. "/posts/{id}") keeps cardinality
// bounded regardless of how many posts exist.
func NewMetrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		})
	}
}
