package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"insighthub/internal/insight/generator"
	"insighthub/internal/insight/models"
	"insighthub/internal/insight/store"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/requestcontext"
)

type stubExplainer struct {
	text  string
	err   error
	calls int
}

func (e *stubExplainer) GenerateExplanation(_ context.Context, _, _ string, _, _, _, _ float64) (string, error) {
	e.calls++
	return e.text, e.err
}

type stubCaller struct {
	err   error
	procs []string
}

func (c *stubCaller) Call(_ context.Context, procedure string) error {
	c.procs = append(c.procs, procedure)
	return c.err
}

type brokenStore struct{}

func (brokenStore) ListCurrent(context.Context, models.Category) ([]*models.Insight, error) {
	return nil, errors.New("relation does not exist")
}

type invalidatingStore struct {
	*store.InMemory
	invalidated int
}

func (s *invalidatingStore) Invalidate(context.Context) error {
	s.invalidated++
	return nil
}

type ServiceSuite struct {
	suite.Suite
	ctx context.Context
	now time.Time
	mem *store.InMemory
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.mem = store.NewInMemory()
	s.mem.Put(s.ctx, &models.Insight{InsightID: "x", RiskScore: 80, Category: models.CategoryCritical})
	s.mem.Put(s.ctx, &models.Insight{InsightID: "y", RiskScore: 35, Category: models.CategoryHighPriority})
}

func (s *ServiceSuite) TestListCurrent() {
	svc := New(s.mem)

	all, err := svc.ListCurrent(s.ctx, "All")
	s.Require().NoError(err)
	s.Len(all, 2)

	hp, err := svc.ListCurrent(s.ctx, "high_priority")
	s.Require().NoError(err)
	s.Require().Len(hp, 1)
	s.Equal("y", hp[0].InsightID)

	_, err = New(brokenStore{}).ListCurrent(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceSuite) TestRequestExplanation() {
	valid := models.ExplanationRequest{AgeGroup: "26-35", Region: "Urban-North", RiskScore: 45, Metric2: 15, Metric3: 20, Metric4: 2500}

	s.Run("invalid enums never reach the generator", func() {
		exp := &stubExplainer{text: "ok"}
		svc := New(s.mem, WithGenerator(generator.New(exp)))

		bad := valid
		bad.Region = "Atlantis"
		_, err := svc.RequestExplanation(s.ctx, bad)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidParameter))

		bad = valid
		bad.AgeGroup = "0-17"
		_, err = svc.RequestExplanation(s.ctx, bad)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidParameter))
		s.Zero(exp.calls)
	})

	s.Run("returns the generated text", func() {
		exp := &stubExplainer{text: "Young urban customers carry elevated risk."}
		svc := New(s.mem, WithGenerator(generator.New(exp)))

		out, err := svc.RequestExplanation(s.ctx, valid)
		s.Require().NoError(err)
		s.Equal("Young urban customers carry elevated risk.", out.Text)
		s.Equal(s.now, out.GeneratedAt)
	})

	s.Run("generator failure is surfaced once", func() {
		exp := &stubExplainer{err: errors.New("quota exceeded")}
		svc := New(s.mem, WithGenerator(generator.New(exp)))

		_, err := svc.RequestExplanation(s.ctx, valid)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalService))
		s.Equal(1, exp.calls)
	})

	s.Run("empty text is a failure", func() {
		svc := New(s.mem, WithGenerator(generator.New(&stubExplainer{text: "  "})))
		_, err := svc.RequestExplanation(s.ctx, valid)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalService))
	})

	s.Run("open breaker maps to external service error", func() {
		exp := &stubExplainer{err: errors.New("down")}
		svc := New(s.mem, WithGenerator(generator.New(exp, generator.WithFailureThreshold(1), generator.WithOpenTimeout(time.Hour))))

		_, _ = svc.RequestExplanation(s.ctx, valid)
		_, err := svc.RequestExplanation(s.ctx, valid)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalService))
		s.Equal(1, exp.calls)
	})

	s.Run("no generator configured", func() {
		_, err := New(s.mem).RequestExplanation(s.ctx, valid)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func (s *ServiceSuite) TestGenerateAll() {
	s.Run("calls the procedure and invalidates the cache", func() {
		caller := &stubCaller{}
		st := &invalidatingStore{InMemory: s.mem}
		svc := New(st, WithBatchProcedure(caller, "analytics.generate_all_insights"))

		s.Require().NoError(svc.GenerateAll(s.ctx))
		s.Equal([]string{"analytics.generate_all_insights"}, caller.procs)
		s.Equal(1, st.invalidated)
	})

	s.Run("procedure failure", func() {
		caller := &stubCaller{err: errors.New("procedure failed")}
		st := &invalidatingStore{InMemory: s.mem}
		err := New(st, WithBatchProcedure(caller, "p")).GenerateAll(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalService))
		s.Zero(st.invalidated)
	})

	s.Run("not configured", func() {
		s.True(dErrors.HasCode(New(s.mem).GenerateAll(s.ctx), dErrors.CodeUnavailable))
	})
}
