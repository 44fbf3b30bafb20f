package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "insighthub/pkg/domain-errors"
)

func TestNewExecutionAttempt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("builds a v7 record", func(t *testing.T) {
		rec, err := NewExecutionAttempt("High Risk", "ana", "Agency", "  quarterly review ", StatusSuccess, now)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), rec.AuditID.Version())
		assert.Equal(t, "quarterly review", rec.Purpose)
		assert.Equal(t, now, rec.Timestamp)
	})

	t.Run("blank purpose is rejected", func(t *testing.T) {
		_, err := NewExecutionAttempt("High Risk", "ana", "Agency", "   ", StatusSuccess, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingPurpose))
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		_, err := NewExecutionAttempt("High Risk", "ana", "Agency", "p", Status("PENDING"), now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestIDsOrderByCreation(t *testing.T) {
	now := time.Now()
	var recs []*ExecutionAttempt
	for i := 0; i < 20; i++ {
		rec, err := NewExecutionAttempt("pb", "u", "o", "p", StatusSuccess, now)
		require.NoError(t, err)
		recs = append(recs, rec)
	}
	last := recs[len(recs)-1].AuditID

	SortNewestFirst(recs)

	assert.Equal(t, last, recs[0].AuditID, "equal timestamps fall back to id order")
	for i := 1; i < len(recs); i++ {
		assert.Greater(t, recs[i-1].AuditID.String(), recs[i].AuditID.String())
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("failed")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s)

	s, err = ParseStatus("All")
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = ParseStatus("maybe")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParameter))
}

func TestMatches(t *testing.T) {
	rec := &ExecutionAttempt{PlaybookName: "Regional Risk", ExecutedBy: "Ana.Lopez", Status: StatusFailed}

	assert.True(t, rec.Matches(Filter{Search: "ana"}))
	assert.True(t, rec.Matches(Filter{Search: "REGIONAL"}))
	assert.False(t, rec.Matches(Filter{Search: "bob"}))
	assert.False(t, rec.Matches(Filter{Status: StatusSuccess}))
	assert.True(t, rec.Matches(Filter{Status: StatusFailed, Search: "risk"}))
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{Search: "  x ", Limit: 0, Offset: -3}.Normalize(200, 1000)
	assert.Equal(t, Filter{Search: "x", Limit: 200}, f)

	f = Filter{Limit: 5000}.Normalize(200, 1000)
	assert.Equal(t, 1000, f.Limit)
}
