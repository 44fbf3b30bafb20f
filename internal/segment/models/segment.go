package models

import (
	"math"
	"sort"
	"time"
)

// HighRiskThreshold is exclusive: a segment scoring exactly 50 is not high risk.
const HighRiskThreshold = 50.0

// Segment is one (age group, region) row of the combined risk snapshot.
type Segment struct {
	AgeGroup            string    `json:"age_group"`
	Region              string    `json:"region"`
	CombinedRiskScore   float64   `json:"combined_risk_score"`
	BankRiskScore       float64   `json:"bank_risk_score"`
	AgencyRiskScore     float64   `json:"agency_risk_score"`
	BankCustomers       int64     `json:"bank_customers"`
	AgencyBeneficiaries int64     `json:"agency_beneficiaries"`
	RefreshedAt         time.Time `json:"refreshed_at"`
}

func (s *Segment) IsHighRisk() bool {
	return s.CombinedRiskScore > HighRiskThreshold
}

// Totals are the headline figures of the overview.
type Totals struct {
	TotalSegments      int     `json:"total_segments"`
	HighRiskSegments   int     `json:"high_risk_segments"`
	HighRiskPercent    float64 `json:"high_risk_percent"`
	AverageRiskScore   float64 `json:"average_risk_score"`
	TotalBeneficiaries int64   `json:"total_beneficiaries"`
}

// GroupMean is the mean combined score of one age group or region.
type GroupMean struct {
	Key       string  `json:"key"`
	MeanScore float64 `json:"mean_score"`
	Segments  int     `json:"segments"`
}

// Dimension selects the grouping for GroupMeans.
type Dimension string

const (
	ByAgeGroup Dimension = "age_group"
	ByRegion   Dimension = "region"
)

// Overview is the dashboard landing summary.
type Overview struct {
	Totals
	ByAgeGroup []GroupMean `json:"by_age_group"`
	ByRegion   []GroupMean `json:"by_region"`
}

// ComputeTotals derives headline figures. An empty snapshot yields zeros.
func ComputeTotals(segments []*Segment) Totals {
	var t Totals
	var sum float64
	for _, s := range segments {
		t.TotalSegments++
		sum += s.CombinedRiskScore
		t.TotalBeneficiaries += s.AgencyBeneficiaries
		if s.IsHighRisk() {
			t.HighRiskSegments++
		}
	}
	if t.TotalSegments > 0 {
		t.AverageRiskScore = sum / float64(t.TotalSegments)
		t.HighRiskPercent = Percent(t.HighRiskSegments, t.TotalSegments)
	}
	return t
}

// Percent rounds to one decimal place, as the dashboard displays it.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// ComputeGroupMeans averages scores per key, ordered by key.
func ComputeGroupMeans(segments []*Segment, dim Dimension) []GroupMean {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, s := range segments {
		k := s.AgeGroup
		if dim == ByRegion {
			k = s.Region
		}
		sums[k] += s.CombinedRiskScore
		counts[k]++
	}
	out := make([]GroupMean, 0, len(sums))
	for k, sum := range sums {
		out = append(out, GroupMean{Key: k, MeanScore: sum / float64(counts[k]), Segments: counts[k]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SortByRisk orders segments by combined score, highest first.
func SortByRisk(segments []*Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		a, b := segments[i], segments[j]
		if a.CombinedRiskScore != b.CombinedRiskScore {
			return a.CombinedRiskScore > b.CombinedRiskScore
		}
		if a.AgeGroup != b.AgeGroup {
			return a.AgeGroup < b.AgeGroup
		}
		return a.Region < b.Region
	})
}

// CSVHeader matches CSVRecord.
func CSVHeader() []string {
	return []string{"age_group", "region", "combined_risk_score", "bank_risk_score", "agency_risk_score", "bank_customers", "agency_beneficiaries", "refreshed_at"}
}

func (s *Segment) CSVRecord() []string {
	return []string{
		s.AgeGroup,
		s.Region,
		formatFloat(s.CombinedRiskScore),
		formatFloat(s.BankRiskScore),
		formatFloat(s.AgencyRiskScore),
		formatInt(s.BankCustomers),
		formatInt(s.AgencyBeneficiaries),
		s.RefreshedAt.UTC().Format(time.RFC3339),
	}
}
