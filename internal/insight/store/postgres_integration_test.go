//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"insighthub/internal/insight/models"
	"insighthub/internal/insight/store"
	"insighthub/pkg/testutil/containers"
)

type PostgresInsightSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
	ctx   context.Context
}

func TestPostgresInsightSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	suite.Run(t, new(PostgresInsightSuite))
}

func (s *PostgresInsightSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresInsightSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "analytics.current_ai_insights"))
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []*models.Insight{
		{InsightID: "a", AgeGroup: "18-25", Region: "Urban-North", RiskScore: 30, Category: "HIGH_PRIORITY", Text: "a", GeneratedAt: at},
		{InsightID: "b", AgeGroup: "65+", Region: "Rural-South", RiskScore: 81, Category: "CRITICAL", Text: "b", GeneratedAt: at},
		{InsightID: "c", AgeGroup: "36-45", Region: "Suburban-East", RiskScore: 55, Category: "critical", Text: "c", GeneratedAt: at},
	} {
		s.Require().NoError(s.store.Insert(s.ctx, in))
	}
}

func (s *PostgresInsightSuite) TestListCurrent() {
	all, err := s.store.ListCurrent(s.ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("b", all[0].InsightID)
	s.Equal("c", all[1].InsightID)

	crit, err := s.store.ListCurrent(s.ctx, models.CategoryCritical)
	s.Require().NoError(err)
	s.Len(crit, 2)
}
