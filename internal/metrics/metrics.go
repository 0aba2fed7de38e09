// Package metrics defines the Prometheus instrumentation for the service:
// task coordinator lifecycle counters and HTTP request metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "captcha"

var (
	// TasksSubmittedTotal counts submissions by dispatch outcome: "started"
	// for a fresh backend call, "joined" for an attach to an in-flight call,
	// "cached" for a completed-result hit, "failed_cached" for a failure hit.
	TasksSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total number of task submissions, labeled by dispatch outcome.",
		},
		[]string{"outcome"},
	)

	// BackendCallsTotal counts finished backend calls by final status.
	BackendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Total number of completed OCR backend calls, labeled by status.",
		},
		[]string{"status"},
	)

	// BackendLatencySeconds observes the wall time of each backend call.
	BackendLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_latency_seconds",
			Help:      "Latency of OCR backend calls (seconds).",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	// EvictionsTotal counts finished entries removed by the sweep, labeled by
	// reason ("ttl" or "capacity").
	EvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Total number of finished task entries evicted from the cache.",
		},
		[]string{"reason"},
	)

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests, labeled by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDurationSeconds observes request handling time.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling latency (seconds).",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)
)

// MustRegister registers every collector in this package with the given
// registerer. Call once at startup; registering twice panics.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		TasksSubmittedTotal,
		BackendCallsTotal,
		BackendLatencySeconds,
		EvictionsTotal,
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
	)
}
