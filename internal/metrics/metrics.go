// Package metrics holds the Prometheus collectors for the chore engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InstancesMaterialized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chorely_instances_materialized_total",
			Help: "Task instances created by materialization",
		},
	)

	// Completions is labelled by assignment: primary or secondary.
	Completions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorely_completions_total",
			Help: "Task instances completed",
		},
		[]string{"assignment"},
	)

	CompletionRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorely_completion_rejections_total",
			Help: "Completion attempts rejected, by reason",
		},
		[]string{"reason"},
	)

	MissedChores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chorely_black_marks_total",
			Help: "Missed-chore marks recorded for overdue instances",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chorely_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chorely_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 1, 3},
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chorely_http_in_flight_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)
)

// Handler serves the default registry for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
