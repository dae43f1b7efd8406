package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/inkwell-cms/backend/internal/metrics"
)

// NewRateLimiter returns a middleware enforcing a per-client token-bucket
// limit. The key is the client IP (chi's RealIP middleware should run first
// so r.RemoteAddr is the real client behind a proxy). Rejected requests get
// 429 with a Retry-After header.
//
// Applied to /api/revalidate: the endpoint is cheap but unauthenticated
// callers should not be able to hammer the secret check.
func NewRateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	var limiters sync.Map // map[string]*rate.Limiter

	limiterFor := func(key string) *rate.Limiter {
		if v, ok := limiters.Load(key); ok {
			return v.(*rate.Limiter)
		}
		lim := rate.NewLimiter(rate.Limit(rps), burst)
		actual, _ := limiters.LoadOrStore(key, lim)
		return actual.(*rate.Limiter)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if key == "" {
				key = "unknown"
			}

			if !limiterFor(key).Allow() {
				metrics.RevalidateRejected.WithLabelValues("rate_limit").Inc()
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
