// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_results_total",
			Help: "Response cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	FilmEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "film_events_published_total",
			Help: "Film events handed to the broker, by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCache records a cache hit or miss.
func RecordCache(hit bool) {
	if hit {
		CacheResults.WithLabelValues("hit").Inc()
		return
	}
	CacheResults.WithLabelValues("miss").Inc()
}

// RecordEventPublish records the outcome of a broker publish.
func RecordEventPublish(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	FilmEventsPublished.WithLabelValues(eventType, outcome).Inc()
}
