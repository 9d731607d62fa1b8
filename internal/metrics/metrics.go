// Package metrics holds the Prometheus collectors shared by the caches, the
// upstream clients and the HTTP middleware.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupStale = "stale"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pfrastro_cache_lookups_total",
			Help: "Total number of TTL cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pfrastro_cache_entries",
			Help: "Current number of entries held by a TTL cache, expired ones included",
		},
		[]string{"cache"},
	)

	CacheSweptEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pfrastro_cache_swept_entries_total",
			Help: "Total number of expired entries removed by cache sweeps",
		},
		[]string{"cache"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pfrastro_upstream_requests_total",
			Help: "Total number of upstream calls by upstream and outcome",
		},
		[]string{"upstream", "outcome"}, // upstream: "github", "s3"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pfrastro_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pfrastro_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	ProgramSyncWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pfrastro_program_sync_writes_total",
			Help: "Total number of program records updated from a fresh GitHub release",
		},
	)

	CounterIncrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pfrastro_counter_increments_total",
			Help: "Total number of view/download counter increments by record kind",
		},
		[]string{"kind"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pfrastro_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordUpstream records the outcome of a call to an external service.
func RecordUpstream(upstream, outcome string) {
	UpstreamRequests.WithLabelValues(upstream, outcome).Inc()
}

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
