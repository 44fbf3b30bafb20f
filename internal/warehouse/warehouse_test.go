package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultSetStringRows(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rs := &ResultSet{
		Columns: []string{"segment", "score", "flag", "at", "missing"},
		Rows:    [][]any{{"18-25", 61.5, true, ts, nil}},
	}

	assert.Equal(t, 1, rs.RowCount())
	assert.Equal(t, [][]string{{"18-25", "61.5", "true", "2026-03-01T09:30:00Z", ""}}, rs.StringRows())
}

func TestNilResultSet(t *testing.T) {
	var rs *ResultSet
	assert.Equal(t, 0, rs.RowCount())
	assert.Nil(t, rs.StringRows())
}

func TestProcedureNameValidation(t *testing.T) {
	cases := map[string]bool{
		"analytics.detect_anomalies": true,
		"detect":                     true,
		"analytics.detect; DROP":     false,
		"a.b.c":                      false,
		"":                           false,
	}
	for name, ok := range cases {
		assert.Equal(t, ok, qualifiedIdent.MatchString(name), name)
	}

	_, err := NewExplainer(nil, "bad name()")
	assert.Error(t, err)
}
