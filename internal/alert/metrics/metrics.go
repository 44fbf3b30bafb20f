package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the alert lifecycle.
type Metrics struct {
	Acknowledged     prometheus.Counter
	AckConflicts     prometheus.Counter
	DetectionRuns    *prometheus.CounterVec
	OpenAlertsByRank *prometheus.GaugeVec
}

func New() *Metrics {
	return &Metrics{
		Acknowledged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insighthub_alerts_acknowledged_total",
			Help: "Alerts moved from open to acknowledged",
		}),
		AckConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insighthub_alert_ack_conflicts_total",
			Help: "Acknowledge attempts on alerts that were already acknowledged",
		}),
		DetectionRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insighthub_detection_runs_total",
			Help: "Detection triggers, by outcome",
		}, []string{"outcome"}),
		OpenAlertsByRank: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "insighthub_open_alerts",
			Help: "Open alerts at the last listing, by severity",
		}, []string{"severity"}),
	}
}

func (m *Metrics) IncAcknowledged() {
	if m == nil {
		return
	}
	m.Acknowledged.Inc()
}

func (m *Metrics) IncAckConflict() {
	if m == nil {
		return
	}
	m.AckConflicts.Inc()
}

func (m *Metrics) IncDetection(outcome string) {
	if m == nil {
		return
	}
	m.DetectionRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetOpen(critical, high, medium, other int) {
	if m == nil {
		return
	}
	m.OpenAlertsByRank.WithLabelValues("critical").Set(float64(critical))
	m.OpenAlertsByRank.WithLabelValues("high").Set(float64(high))
	m.OpenAlertsByRank.WithLabelValues("medium").Set(float64(medium))
	m.OpenAlertsByRank.WithLabelValues("other").Set(float64(other))
}
