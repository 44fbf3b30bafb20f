package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Explanations    *prometheus.CounterVec
	ExplainDuration prometheus.Histogram
	BatchRuns       *prometheus.CounterVec
	BreakerChanges  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Explanations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insighthub_explanations_total",
			Help: "Custom explanation requests, by outcome",
		}, []string{"outcome"}),
		ExplainDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "insighthub_explain_duration_seconds",
			Help:    "Latency of the external explanation generator",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		BatchRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insighthub_insight_batch_runs_total",
			Help: "Batch insight generation runs, by outcome",
		}, []string{"outcome"}),
		BreakerChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insighthub_explain_breaker_transitions_total",
			Help: "Explanation circuit breaker state changes",
		}, []string{"from", "to"}),
	}
}

func (m *Metrics) IncExplanation(outcome string) {
	if m == nil {
		return
	}
	m.Explanations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveExplain(start time.Time) {
	if m == nil {
		return
	}
	m.ExplainDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncBatch(outcome string) {
	if m == nil {
		return
	}
	m.BatchRuns.WithLabelValues(outcome).Inc()
}

// BreakerTransition has the generator.WithStateChange signature.
func (m *Metrics) BreakerTransition(from, to string) {
	if m == nil {
		return
	}
	m.BreakerChanges.WithLabelValues(from, to).Inc()
}
