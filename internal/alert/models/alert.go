package models

import (
	"sort"
	"strings"
	"time"

	dErrors "insighthub/pkg/domain-errors"
)

// Severity is the detector-assigned urgency of an alert.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank orders severities for triage; lower is more urgent. Anything the
// detector emits outside the known set ranks with LOW.
func (s Severity) Rank() int {
	switch Severity(strings.ToUpper(string(s))) {
	case SeverityCritical:
		return 1
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 3
	default:
		return 4
	}
}

// Alert is an anomaly emitted by the external detector.
//
// Lifecycle: Unacknowledged -> Acknowledged (terminal). The transition happens
// exactly once and stamps AcknowledgedAt together with the flag. Alerts are
// never deleted.
type Alert struct {
	AlertID        string     `json:"alert_id"`
	AlertType      string     `json:"alert_type"`
	AgeGroup       string     `json:"age_group"`
	Region         string     `json:"region"`
	MetricName     string     `json:"metric_name"`
	CurrentValue   float64    `json:"current_value"`
	Description    string     `json:"description"`
	Severity       Severity   `json:"severity"`
	DetectedAt     time.Time  `json:"detected_at"`
	IsAcknowledged bool       `json:"is_acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
}

// CanAcknowledge reports whether the open -> acknowledged transition is allowed.
func (a *Alert) CanAcknowledge() error {
	if a.IsAcknowledged {
		return dErrors.New(dErrors.CodeAlreadyAcknowledged, "alert is already acknowledged")
	}
	return nil
}

// ApplyAcknowledgement sets the flag and timestamp together. Call CanAcknowledge first.
func (a *Alert) ApplyAcknowledgement(now time.Time) {
	at := now.UTC()
	a.IsAcknowledged = true
	a.AcknowledgedAt = &at
}

// SortForTriage orders by severity rank, then most recently detected first.
func SortForTriage(alerts []*Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alerts[i].Severity.Rank(), alerts[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return alerts[i].DetectedAt.After(alerts[j].DetectedAt)
	})
}

// SeverityCounts summarizes open alerts for the dashboard tiles.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Other    int `json:"other"`
	Total    int `json:"total"`
}

func CountBySeverity(alerts []*Alert) SeverityCounts {
	var c SeverityCounts
	for _, a := range alerts {
		switch a.Severity.Rank() {
		case 1:
			c.Critical++
		case 2:
			c.High++
		case 3:
			c.Medium++
		default:
			c.Other++
		}
	}
	c.Total = len(alerts)
	return c
}
