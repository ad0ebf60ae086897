package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Admission metrics.
	ActiveQueries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "processor_active_queries",
			Help: "Number of queries currently admitted (running or transferring)",
		},
	)

	AdmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "processor_admitted_total",
			Help: "Total number of queries admitted by the scheduler",
		},
	)

	QueriesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "processor_queries_by_status",
			Help: "Number of queries currently in each status",
		},
		[]string{"status"},
	)

	// Worker metrics.
	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "processor_query_duration_seconds",
			Help:    "Time from admission to terminal state, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueriesFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processor_queries_failed_total",
			Help: "Total number of queries that reached the failed status, by failing step",
		},
		[]string{"step"},
	)

	// Transfer metrics.
	TransferAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processor_transfer_attempts_total",
			Help: "Total number of transfer attempts, by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	TransferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "processor_transfer_duration_seconds",
			Help:    "Time spent delivering a file, by mode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// Reaper metrics.
	ReapedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "processor_reaped_total",
			Help: "Total number of queries transitioned to failed by the reaper",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ActiveQueries,
		AdmittedTotal,
		QueriesByStatus,
		QueryDuration,
		QueriesFailedTotal,
		TransferAttemptsTotal,
		TransferDuration,
		ReapedTotal,
	)
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation's duration for later observation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time on histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time on a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
