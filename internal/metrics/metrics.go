// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_http_requests_total",
			Help: "HTTP requests served, by route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinescope_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	TMDBRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_tmdb_requests_total",
			Help: "Upstream TMDB calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	TMDBDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinescope_tmdb_request_duration_seconds",
			Help:    "Upstream TMDB latency by endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cinescope_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	DispatchFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_catalog_dispatch_empty_total",
			Help: "Catalog fetches answered with an empty page, by reason",
		},
		[]string{"reason"},
	)

	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_storage_operations_total",
			Help: "Object storage calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinescope_events_published_total",
			Help: "Domain events handed to the broker, by event type and outcome",
		},
		[]string{"event", "outcome"},
	)
)

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
