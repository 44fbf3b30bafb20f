package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks governed executions.
type Metrics struct {
	Executions      *prometheus.CounterVec
	Rejected        *prometheus.CounterVec
	ExecuteDuration prometheus.Histogram
	RowsReturned    prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Executions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insighthub_executions_total",
			Help: "Governed playbook executions that reached the warehouse, by outcome",
		}, []string{"status"}),
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insighthub_executions_rejected_total",
			Help: "Execution requests rejected before the warehouse was called, by reason",
		}, []string{"reason"}),
		ExecuteDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "insighthub_execute_duration_seconds",
			Help:    "End-to-end duration of governed executions including the audit write",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		RowsReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "insighthub_execute_rows_returned",
			Help:    "Rows returned by successful executions",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Metrics) IncExecution(status string) {
	if m == nil {
		return
	}
	m.Executions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveExecute(start time.Time) {
	if m == nil {
		return
	}
	m.ExecuteDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRows(n int) {
	if m == nil {
		return
	}
	m.RowsReturned.Observe(float64(n))
}
