//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"insighthub/internal/alert/models"
	"insighthub/internal/alert/store"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "analytics.anomaly_alerts"))

	base := time.Now().UTC().Truncate(time.Second)
	for _, a := range []*models.Alert{
		{AlertID: "low", AlertType: "SPIKE", AgeGroup: "18-25", Region: "Urban-North", MetricName: "risk", Severity: models.SeverityLow, DetectedAt: base.Add(time.Hour)},
		{AlertID: "crit-old", AlertType: "SPIKE", AgeGroup: "26-35", Region: "Rural-South", MetricName: "risk", Severity: models.SeverityCritical, DetectedAt: base},
		{AlertID: "crit-new", AlertType: "SPIKE", AgeGroup: "26-35", Region: "Rural-North", MetricName: "risk", Severity: models.SeverityCritical, DetectedAt: base.Add(time.Minute)},
		{AlertID: "high", AlertType: "DROP", AgeGroup: "65+", Region: "Suburban-East", MetricName: "risk", Severity: models.SeverityHigh, DetectedAt: base},
	} {
		s.Require().NoError(s.store.Insert(ctx, a))
	}
}

func (s *PostgresStoreSuite) TestListOpenOrdering() {
	got, err := s.store.ListOpen(context.Background())
	s.Require().NoError(err)

	var ids []string
	for _, a := range got {
		ids = append(ids, a.AlertID)
	}
	s.Equal([]string{"crit-new", "crit-old", "high", "low"}, ids)
}

func (s *PostgresStoreSuite) TestAcknowledgeStampsOnce() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	a, err := s.store.Acknowledge(ctx, "high", now)
	s.Require().NoError(err)
	s.True(a.IsAcknowledged)
	s.Require().NotNil(a.AcknowledgedAt)
	s.True(now.Equal(*a.AcknowledgedAt))

	_, err = s.store.Acknowledge(ctx, "high", now.Add(time.Hour))
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.Acknowledge(ctx, "missing", now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	var stamped time.Time
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx,
		`SELECT acknowledged_at FROM analytics.anomaly_alerts WHERE alert_id = 'high'`).Scan(&stamped))
	s.True(now.Equal(stamped), "timestamp is not overwritten")
}

func (s *PostgresStoreSuite) TestConcurrentAcknowledge() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	var wins, rejected atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Acknowledge(ctx, "crit-old", time.Now())
			if err == nil {
				wins.Add(1)
			} else if errors.Is(err, sentinel.ErrInvalidState) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one acknowledge succeeds")
	s.Equal(int32(goroutines-1), rejected.Load())
}

func (s *PostgresStoreSuite) TestFlagAndTimestampMoveTogether() {
	_, err := s.postgres.DB.ExecContext(context.Background(),
		`UPDATE analytics.anomaly_alerts SET is_acknowledged = TRUE WHERE alert_id = 'low'`)
	s.Require().Error(err, "check constraint rejects a flag without a timestamp")
}
