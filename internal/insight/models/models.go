package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	dErrors "insighthub/pkg/domain-errors"
)

// AgeGroup is one of the demographic bands the combiner scores.
type AgeGroup string

// Region is one of the geographic areas the combiner scores.
type Region string

var ageGroups = []AgeGroup{"18-25", "26-35", "36-45", "46-55", "56-65", "65+"}

var regions = []Region{
	"Urban-North", "Urban-South",
	"Rural-North", "Rural-South",
	"Suburban-East", "Suburban-West",
}

func AgeGroups() []AgeGroup {
	return append([]AgeGroup(nil), ageGroups...)
}

func Regions() []Region {
	return append([]Region(nil), regions...)
}

// ParseAgeGroup requires an exact band label after trimming.
func ParseAgeGroup(s string) (AgeGroup, error) {
	s = strings.TrimSpace(s)
	for _, g := range ageGroups {
		if string(g) == s {
			return g, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidParameter, fmt.Sprintf("unknown age group %q", s))
}

// ParseRegion accepts any letter case and returns the canonical spelling.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	for _, r := range regions {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidParameter, fmt.Sprintf("unknown region %q", s))
}

// ExplanationRequest asks the generator to explain one segment's metrics.
// The numeric values are passed through unchanged.
type ExplanationRequest struct {
	AgeGroup  string  `json:"age_group"`
	Region    string  `json:"region"`
	RiskScore float64 `json:"risk_score"`
	Metric2   float64 `json:"metric2"`
	Metric3   float64 `json:"metric3"`
	Metric4   float64 `json:"metric4"`
}

// Validate canonicalizes the enums in place.
func (r *ExplanationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	g, err := ParseAgeGroup(r.AgeGroup)
	if err != nil {
		return err
	}
	reg, err := ParseRegion(r.Region)
	if err != nil {
		return err
	}
	for name, v := range map[string]float64{
		"risk_score": r.RiskScore, "metric2": r.Metric2, "metric3": r.Metric3, "metric4": r.Metric4,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return dErrors.New(dErrors.CodeInvalidParameter, name+" must be a finite number")
		}
	}
	r.AgeGroup, r.Region = string(g), string(reg)
	return nil
}

// Explanation is the generator's answer for one request.
type Explanation struct {
	AgeGroup    string    `json:"age_group"`
	Region      string    `json:"region"`
	Text        string    `json:"insight"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Category buckets generated insights by urgency.
type Category string

const (
	CategoryCritical     Category = "CRITICAL"
	CategoryHighPriority Category = "HIGH_PRIORITY"
)

// Insight is a batch-generated explanation stored by the warehouse.
type Insight struct {
	InsightID   string    `json:"insight_id"`
	AgeGroup    string    `json:"age_group"`
	Region      string    `json:"region"`
	RiskScore   float64   `json:"risk_score"`
	Category    Category  `json:"insight_category"`
	Text        string    `json:"insight_text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NormalizeCategory maps a caller filter to a stored category. Empty and
// "ALL" select everything.
func NormalizeCategory(s string) Category {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "ALL" {
		return ""
	}
	return Category(s)
}
