package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"insighthub/internal/alert/models"
	"insighthub/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	base  time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.base = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, a := range []*models.Alert{
		{AlertID: "m1", Severity: models.SeverityMedium, DetectedAt: s.base},
		{AlertID: "c1", Severity: models.SeverityCritical, DetectedAt: s.base},
		{AlertID: "c2", Severity: models.SeverityCritical, DetectedAt: s.base.Add(time.Hour)},
	} {
		s.Require().NoError(s.store.Insert(s.ctx, a))
	}
}

func (s *InMemoryStoreSuite) TestListOpenTriageOrder() {
	got, err := s.store.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal("c2", got[0].AlertID)
	s.Equal("c1", got[1].AlertID)
	s.Equal("m1", got[2].AlertID)
}

func (s *InMemoryStoreSuite) TestAcknowledge() {
	now := s.base.Add(2 * time.Hour)

	s.Run("open alert transitions and leaves the open list", func() {
		a, err := s.store.Acknowledge(s.ctx, "c1", now)
		s.Require().NoError(err)
		s.True(a.IsAcknowledged)
		s.Equal(now, *a.AcknowledgedAt)

		open, err := s.store.ListOpen(s.ctx)
		s.Require().NoError(err)
		s.Len(open, 2)
	})

	s.Run("second acknowledgement is rejected without restamping", func() {
		_, err := s.store.Acknowledge(s.ctx, "c1", now.Add(time.Hour))
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("unknown alert is not found", func() {
		_, err := s.store.Acknowledge(s.ctx, "nope", now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestDuplicateInsertConflicts() {
	err := s.store.Insert(s.ctx, &models.Alert{AlertID: "c1"})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestConcurrentAcknowledgeHasOneWinner() {
	const callers = 64
	var wg sync.WaitGroup
	var wins, rejected atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Acknowledge(s.ctx, "m1", time.Now())
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrInvalidState):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(callers-1), rejected.Load())
}
