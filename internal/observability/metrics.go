package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	gradingOutcomesTotal  *prometheus.CounterVec
	gradingDurationSecond *prometheus.HistogramVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classhub_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classhub_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classhub_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradingOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classhub_grading_outcomes_total",
			Help: "Submissions reaching a terminal grading status.",
		}, []string{"status"})

		gradingDurationSecond = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classhub_grading_duration_seconds",
			Help:    "Wall-clock duration of the grading pipeline per submission.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 45},
		}, []string{"status"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradingOutcomesTotal,
			gradingDurationSecond,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradingOutcomes exposes the counter for terminal grading statuses.
func GradingOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingOutcomesTotal
}

// GradingDuration exposes the histogram for grading pipeline duration.
func GradingDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return gradingDurationSecond
}
