// Package metrics exposes Prometheus instrumentation for the HTTP
// surface and the schedule executor.
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
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	executorRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cadence_executor_runs_total",
			Help: "Total number of executor batch runs",
		},
	)

	executorRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cadence_executor_run_duration_seconds",
			Help:    "Executor batch run time in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	schedulesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_schedules_processed_total",
			Help: "Schedules processed by the executor, by outcome",
		},
		[]string{"tenant", "outcome"},
	)

	dbConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordExecutorRun records one full batch pass.
func RecordExecutorRun(duration time.Duration) {
	executorRunsTotal.Inc()
	executorRunDuration.Observe(duration.Seconds())
}

// Outcome labels for RecordScheduleProcessed.
const (
	OutcomeExecuted  = "executed"
	OutcomeSkipped   = "skipped"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// RecordScheduleProcessed counts a single schedule's outcome within a run.
func RecordScheduleProcessed(tenantID, outcome string) {
	schedulesProcessed.WithLabelValues(tenantID, outcome).Inc()
}

func UpdateDBStats(open int) {
	dbConnectionsOpen.Set(float64(open))
}
