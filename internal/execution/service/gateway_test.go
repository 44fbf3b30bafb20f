package service

//go:generate mockgen -source=gateway.go -destination=../mocks/mocks.go -package=mocks PlaybookLookup,QueryRunner,AuditAppender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	auditmodels "insighthub/internal/audit/models"
	auditservice "insighthub/internal/audit/service"
	auditstore "insighthub/internal/audit/store"
	"insighthub/internal/execution/mocks"
	playbookmodels "insighthub/internal/playbook/models"
	playbookservice "insighthub/internal/playbook/service"
	playbookstore "insighthub/internal/playbook/store"
	"insighthub/internal/warehouse"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/requestcontext"
)

type GatewaySuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	playbooks *mocks.MockPlaybookLookup
	runner    *mocks.MockQueryRunner
	audit     *mocks.MockAuditAppender
	gateway   *Gateway
	ctx       context.Context
	now       time.Time
	playbook  *playbookmodels.Playbook
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.playbooks = mocks.NewMockPlaybookLookup(s.ctrl)
	s.runner = mocks.NewMockQueryRunner(s.ctrl)
	s.audit = mocks.NewMockAuditAppender(s.ctrl)
	s.gateway = New(s.playbooks, s.runner, s.audit, WithDefaultOrganization("Dashboard"))
	s.now = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.playbook = &playbookmodels.Playbook{
		ID: "PB001", Name: "High Risk Segments", Category: "Risk Assessment",
		QueryTemplate: "SELECT 1", IsActive: true,
	}
}

func (s *GatewaySuite) request(purpose string) Request {
	return Request{PlaybookID: "PB001", Purpose: purpose, Principal: "ana"}
}

func (s *GatewaySuite) TestBlankPurposeIsRejectedWithoutSideEffects() {
	for _, purpose := range []string{"", "   ", "\t\n"} {
		_, err := s.gateway.Execute(s.ctx, s.request(purpose))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeMissingPurpose), "purpose %q", purpose)
	}
	// no EXPECT() set: any call on a mock fails the test
}

func (s *GatewaySuite) TestMissingPrincipalIsRejected() {
	req := s.request("review")
	req.Principal = " "
	_, err := s.gateway.Execute(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *GatewaySuite) TestUnknownPlaybookWritesNoRecord() {
	s.playbooks.EXPECT().Get(gomock.Any(), "PB001").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "playbook not found"))

	_, err := s.gateway.Execute(s.ctx, s.request("review"))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *GatewaySuite) TestSuccessfulExecution() {
	rs := &warehouse.ResultSet{Columns: []string{"segment"}, Rows: [][]any{{"18-25"}, {"26-35"}}}
	var recorded *auditmodels.ExecutionAttempt

	gomock.InOrder(
		s.playbooks.EXPECT().Get(gomock.Any(), "PB001").Return(s.playbook, nil),
		s.runner.EXPECT().RunQuery(gomock.Any(), "SELECT 1").Return(rs, nil),
		s.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, rec *auditmodels.ExecutionAttempt) error {
				recorded = rec
				return nil
			}),
	)

	res, err := s.gateway.Execute(s.ctx, s.request("  quarterly outreach  "))
	s.Require().NoError(err)
	s.Equal(2, res.RowCount)
	s.Equal([]string{"segment"}, res.Columns)

	s.Require().NotNil(recorded)
	s.Equal(res.AuditID, recorded.AuditID)
	s.Equal(auditmodels.StatusSuccess, recorded.Status)
	s.Equal("quarterly outreach", recorded.Purpose)
	s.Equal("High Risk Segments", recorded.PlaybookName)
	s.Equal("ana", recorded.ExecutedBy)
	s.Equal("Dashboard", recorded.Organization)
	s.Equal(s.now, recorded.Timestamp)
}

func (s *GatewaySuite) TestQueryFailureIsRecordedAsFailed() {
	var recorded *auditmodels.ExecutionAttempt
	s.playbooks.EXPECT().Get(gomock.Any(), "PB001").Return(s.playbook, nil)
	s.runner.EXPECT().RunQuery(gomock.Any(), gomock.Any()).Return(nil, errors.New("relation does not exist"))
	s.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *auditmodels.ExecutionAttempt) error {
			recorded = rec
			return nil
		})

	req := s.request("review")
	req.Organization = "Agency-A"
	_, err := s.gateway.Execute(s.ctx, req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeQueryExecution))
	s.ErrorContains(err, "relation does not exist")

	s.Require().NotNil(recorded)
	s.Equal(auditmodels.StatusFailed, recorded.Status)
	s.Equal("Agency-A", recorded.Organization)
}

func (s *GatewaySuite) TestAuditFailureWithholdsResult() {
	s.Run("after a successful query", func() {
		s.playbooks.EXPECT().Get(gomock.Any(), "PB001").Return(s.playbook, nil)
		s.runner.EXPECT().RunQuery(gomock.Any(), gomock.Any()).Return(&warehouse.ResultSet{}, nil)
		s.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("insert failed"))

		res, err := s.gateway.Execute(s.ctx, s.request("review"))
		s.Nil(res)
		s.True(dErrors.HasCode(err, dErrors.CodeAuditWrite))
	})

	s.Run("after a failed query", func() {
		s.playbooks.EXPECT().Get(gomock.Any(), "PB001").Return(s.playbook, nil)
		s.runner.EXPECT().RunQuery(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
		s.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
			Return(dErrors.New(dErrors.CodeAuditWrite, "audit record could not be persisted"))

		_, err := s.gateway.Execute(s.ctx, s.request("review"))
		s.True(dErrors.HasCode(err, dErrors.CodeAuditWrite))
	})
}

func (s *GatewaySuite) TestAuditSurvivesCallerCancellation() {
	ctx, cancel := context.WithCancel(s.ctx)

	s.playbooks.EXPECT().Get(gomock.Any(), "PB001").Return(s.playbook, nil)
	s.runner.EXPECT().RunQuery(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...any) (*warehouse.ResultSet, error) {
			cancel()
			return nil, ctx.Err()
		})
	s.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, rec *auditmodels.ExecutionAttempt) error {
			s.NoError(ctx.Err(), "audit write must not inherit the cancellation")
			s.Equal(auditmodels.StatusFailed, rec.Status)
			return nil
		})

	_, err := s.gateway.Execute(ctx, s.request("review"))
	s.True(dErrors.HasCode(err, dErrors.CodeQueryExecution))
}

type staticLookup struct{ pb *playbookmodels.Playbook }

func (l staticLookup) Get(context.Context, string) (*playbookmodels.Playbook, error) {
	return l.pb, nil
}

type flakyRunner struct{}

func (flakyRunner) RunQuery(_ context.Context, _ string, _ ...any) (*warehouse.ResultSet, error) {
	return &warehouse.ResultSet{Columns: []string{"n"}, Rows: [][]any{{1}}}, nil
}

func TestConcurrentExecutionsAreIndependent(t *testing.T) {
	ledger := auditstore.NewInMemory()
	gw := New(
		staticLookup{pb: &playbookmodels.Playbook{ID: "p", Name: "P", Category: "c", QueryTemplate: "q", IsActive: true}},
		flakyRunner{},
		auditservice.New(ledger),
	)

	const n = 40
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := gw.Execute(context.Background(), Request{
				PlaybookID: "p", Purpose: fmt.Sprintf("purpose %d", i), Principal: "user",
			})
			if err != nil {
				t.Errorf("execute %d: %v", i, err)
				return
			}
			ids <- res.AuditID.String()
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	sum, err := ledger.Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != n || len(seen) != n {
		t.Fatalf("expected %d distinct records, got total=%d distinct=%d", n, sum.Total, len(seen))
	}
}

func TestDeactivatedPlaybookStopsExecutingImmediately(t *testing.T) {
	ctx := context.Background()
	catalog := playbookstore.NewInMemory()
	pb := &playbookmodels.Playbook{ID: "p", Name: "P", Category: "c", QueryTemplate: "q", IsActive: true}
	if err := catalog.Save(ctx, pb); err != nil {
		t.Fatal(err)
	}
	ledger := auditstore.NewInMemory()
	gw := New(
		playbookservice.New(playbookstore.NewCached(catalog, 8, time.Hour)),
		flakyRunner{},
		auditservice.New(ledger),
	)
	req := Request{PlaybookID: "p", Purpose: "weekly review", Principal: "user"}

	if _, err := gw.Execute(ctx, req); err != nil {
		t.Fatalf("first execute: %v", err)
	}

	retired := *pb
	retired.IsActive = false
	if err := catalog.Save(ctx, &retired); err != nil {
		t.Fatal(err)
	}

	_, err := gw.Execute(ctx, req)
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not_found after deactivation, got %v", err)
	}
	sum, err := ledger.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 1 {
		t.Fatalf("expected a single audit record, got %d", sum.Total)
	}
}
