package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AuthAttempts    *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vismooc_http_requests_total",
			Help: "Total number of HTTP requests served, by route and status code",
		}, []string{"route", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vismooc_http_request_duration_seconds",
			Help:    "HTTP request latency, by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		AuthAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vismooc_auth_attempts_total",
			Help: "Authentication attempts, by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vismooc_response_cache_hits_total",
			Help: "Analytics responses served from the Redis cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vismooc_response_cache_misses_total",
			Help: "Analytics responses that had to be recomputed",
		}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// ObserveAuthAttempt records one authentication attempt outcome.
func (m *Metrics) ObserveAuthAttempt(strategy, outcome string) {
	m.AuthAttempts.WithLabelValues(strategy, outcome).Inc()
}
