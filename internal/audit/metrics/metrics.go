package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ledger writes and the compliance stream mirror.
type Metrics struct {
	RecordsAppended *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
	MirrorPublished prometheus.Counter
	MirrorFailures  prometheus.Counter
	MirrorDropped   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RecordsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insighthub_audit_records_appended_total",
			Help: "Audit ledger records persisted, by execution status",
		}, []string{"status"}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insighthub_audit_persist_failures_total",
			Help: "Audit ledger writes that failed (the execution was reported as failed)",
		}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "insighthub_audit_persist_duration_seconds",
			Help:    "Latency of synchronous audit ledger writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		MirrorPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insighthub_audit_mirror_published_total",
			Help: "Audit records mirrored to the compliance topic",
		}),
		MirrorFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insighthub_audit_mirror_failures_total",
			Help: "Audit records that could not be mirrored",
		}),
		MirrorDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insighthub_audit_mirror_dropped_total",
			Help: "Audit records dropped because the mirror queue was full",
		}),
	}
}

func (m *Metrics) IncAppended(status string) {
	if m == nil {
		return
	}
	m.RecordsAppended.WithLabelValues(status).Inc()
}

func (m *Metrics) IncPersistFailures() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) ObservePersist(start time.Time) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncMirrorPublished() {
	if m == nil {
		return
	}
	m.MirrorPublished.Inc()
}

func (m *Metrics) IncMirrorFailures() {
	if m == nil {
		return
	}
	m.MirrorFailures.Inc()
}

func (m *Metrics) IncMirrorDropped() {
	if m == nil {
		return
	}
	m.MirrorDropped.Inc()
}
