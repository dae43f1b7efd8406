// Package metrics defines the Prometheus collectors for the CMS backend.
// Collectors are package-level vars registered once at startup via
// RegisterCollectors; handlers and the cascade increment them directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequests counts handled requests by method, route pattern and status class.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkwell", Name: "http_requests_total", Help: "Number of handled HTTP requests."},
		[]string{"method", "route", "status"},
	)

	// CascadeDispatches counts outbound invalidation calls by outcome.
	// outcome is "ok" for a 2xx response, "error" for anything else
	// (network failure, timeout, non-2xx).
	CascadeDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkwell", Name: "cascade_dispatch_total", Help: "Number of outbound cache-invalidation calls by outcome."},
		[]string{"kind", "outcome"},
	)

	// RevalidateRejected counts revalidation requests rejected at the trust
	// boundary, by reason ("secret" or "rate_limit").
	RevalidateRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkwell", Name: "revalidate_rejected_total", Help: "Number of rejected revalidation requests by reason."},
		[]string{"reason"},
	)
)

// RegisterCollectors registers every collector in this package with reg.
// Call once from main with prometheus.DefaultRegisterer.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(CascadeDispatches)
	reg.MustRegister(RevalidateRejected)
}
