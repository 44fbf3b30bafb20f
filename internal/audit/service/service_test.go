package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"insighthub/internal/audit/models"
	"insighthub/internal/audit/store"
	dErrors "insighthub/pkg/domain-errors"
)

type brokenStore struct{}

func (brokenStore) Append(context.Context, *models.ExecutionAttempt) error {
	return errors.New("disk full")
}

func (brokenStore) Query(context.Context, models.Filter) ([]*models.ExecutionAttempt, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) Summary(context.Context) (*models.Summary, error) {
	return nil, errors.New("connection reset")
}

type recordingMirror struct {
	mu   sync.Mutex
	seen []*models.ExecutionAttempt
}

func (m *recordingMirror) Enqueue(rec *models.ExecutionAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, rec)
}

type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	store  *store.InMemory
	mirror *recordingMirror
	svc    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.mirror = &recordingMirror{}
	s.svc = New(s.store, WithMirror(s.mirror), WithPageLimit(2, 3))
}

func (s *ServiceSuite) record(status models.Status) *models.ExecutionAttempt {
	rec, err := models.NewExecutionAttempt("pb", "ana", "Agency", "review", status, time.Now())
	s.Require().NoError(err)
	return rec
}

func (s *ServiceSuite) TestAppend() {
	s.Run("persists then mirrors", func() {
		rec := s.record(models.StatusSuccess)
		s.Require().NoError(s.svc.Append(s.ctx, rec))

		sum, err := s.store.Summary(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, sum.Total)
		s.Len(s.mirror.seen, 1)
	})

	s.Run("invalid record is an audit write error", func() {
		rec := s.record(models.StatusSuccess)
		rec.Purpose = " "
		err := s.svc.Append(s.ctx, rec)
		s.True(dErrors.HasCode(err, dErrors.CodeAuditWrite))
	})

	s.Run("store failure is fail-closed and not mirrored", func() {
		mirror := &recordingMirror{}
		svc := New(brokenStore{}, WithMirror(mirror))
		err := svc.Append(s.ctx, s.record(models.StatusFailed))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAuditWrite))
		s.Empty(mirror.seen)
	})
}

func (s *ServiceSuite) TestQueryPaging() {
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.svc.Append(s.ctx, s.record(models.StatusSuccess)))
	}

	got, err := s.svc.Query(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Len(got, 2, "default limit applies")

	got, err = s.svc.Query(s.ctx, models.Filter{Limit: 50})
	s.Require().NoError(err)
	s.Len(got, 3, "limit is capped")

	_, err = s.svc.Query(s.ctx, models.Filter{Status: "BOGUS"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidParameter))
}

func (s *ServiceSuite) TestUnavailable() {
	svc := New(brokenStore{})

	_, err := svc.Query(s.ctx, models.Filter{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = svc.Summary(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}
