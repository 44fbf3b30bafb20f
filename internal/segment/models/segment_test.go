package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() []*Segment {
	return []*Segment{
		{AgeGroup: "18-25", Region: "Urban-North", CombinedRiskScore: 70, AgencyBeneficiaries: 100},
		{AgeGroup: "18-25", Region: "Rural-South", CombinedRiskScore: 50, AgencyBeneficiaries: 200},
		{AgeGroup: "65+", Region: "Urban-North", CombinedRiskScore: 30, AgencyBeneficiaries: 300},
		{AgeGroup: "65+", Region: "Rural-South", CombinedRiskScore: 51, AgencyBeneficiaries: 400},
	}
}

func TestComputeTotals(t *testing.T) {
	got := ComputeTotals(fixture())
	assert.Equal(t, Totals{
		TotalSegments:      4,
		HighRiskSegments:   2,
		HighRiskPercent:    50,
		AverageRiskScore:   50.25,
		TotalBeneficiaries: 1000,
	}, got)

	assert.Equal(t, Totals{}, ComputeTotals(nil))
}

func TestThresholdIsExclusive(t *testing.T) {
	assert.False(t, (&Segment{CombinedRiskScore: 50}).IsHighRisk())
	assert.True(t, (&Segment{CombinedRiskScore: 50.01}).IsHighRisk())
}

func TestPercentRounding(t *testing.T) {
	assert.Equal(t, 33.3, Percent(1, 3))
	assert.Equal(t, 66.7, Percent(2, 3))
	assert.Equal(t, 0.0, Percent(0, 0))
}

func TestComputeGroupMeans(t *testing.T) {
	byAge := ComputeGroupMeans(fixture(), ByAgeGroup)
	require.Len(t, byAge, 2)
	assert.Equal(t, GroupMean{Key: "18-25", MeanScore: 60, Segments: 2}, byAge[0])
	assert.Equal(t, GroupMean{Key: "65+", MeanScore: 40.5, Segments: 2}, byAge[1])

	byRegion := ComputeGroupMeans(fixture(), ByRegion)
	require.Len(t, byRegion, 2)
	assert.Equal(t, "Rural-South", byRegion[0].Key)
	assert.Equal(t, 50.5, byRegion[0].MeanScore)
}

func TestSortByRiskAndCSV(t *testing.T) {
	segs := fixture()
	SortByRisk(segs)
	assert.Equal(t, 70.0, segs[0].CombinedRiskScore)
	assert.Equal(t, 30.0, segs[3].CombinedRiskScore)

	segs[0].RefreshedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := segs[0].CSVRecord()
	assert.Len(t, rec, len(CSVHeader()))
	assert.Equal(t, []string{"18-25", "Urban-North", "70", "0", "0", "0", "100", "2026-01-02T03:04:05Z"}, rec)
}
