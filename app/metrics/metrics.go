// Package metrics provides Prometheus metrics for the news service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal counts upstream provider calls by route and outcome.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intellinews",
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream provider requests",
		},
		[]string{"route", "status"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "intellinews",
			Name:      "upstream_request_duration_seconds",
			Help:      "Duration of upstream provider requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// GenerationsTotal counts generation flow runs by outcome (success, failure, cache_hit).
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intellinews",
			Name:      "generations_total",
			Help:      "Total number of content generation flow runs",
		},
		[]string{"flow", "outcome"},
	)

	GenerationAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "intellinews",
			Name:      "generation_attempts",
			Help:      "Provider attempts needed per generation flow run",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"flow"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intellinews",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	// TasksTotal counts executed background tasks by type and outcome.
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "intellinews",
			Name:      "tasks_total",
			Help:      "Total number of executed tasks",
		},
		[]string{"type", "outcome"},
	)
)

// RecordUpstream records one upstream call. A zero status means the request
// never produced a response.
func RecordUpstream(route string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequestsTotal.WithLabelValues(route, label).Inc()
	UpstreamDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func RecordGeneration(flow, outcome string, attempts int) {
	GenerationsTotal.WithLabelValues(flow, outcome).Inc()
	if attempts > 0 {
		GenerationAttempts.WithLabelValues(flow).Observe(float64(attempts))
	}
}

func RecordHTTPRequest(method, route string, status int) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func RecordTask(taskType string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	TasksTotal.WithLabelValues(taskType, outcome).Inc()
}
