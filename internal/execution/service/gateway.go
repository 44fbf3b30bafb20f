// Package service implements the governed execution gateway: no playbook runs
// without a stated purpose, and every attempt that reaches the warehouse
// leaves exactly one audit record carrying its real outcome.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	auditmodels "insighthub/internal/audit/models"
	"insighthub/internal/execution/metrics"
	playbookmodels "insighthub/internal/playbook/models"
	"insighthub/internal/warehouse"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/requestcontext"
)

var tracer = otel.Tracer("insighthub/internal/execution")

// The FAILED record must land even when the caller's context was cancelled
// mid-query, so the audit write runs detached with its own deadline.
const auditWriteTimeout = 5 * time.Second

// PlaybookLookup resolves an active playbook. It returns coded errors
// (not_found, unavailable).
type PlaybookLookup interface {
	Get(ctx context.Context, id string) (*playbookmodels.Playbook, error)
}

// QueryRunner executes a template against the warehouse.
type QueryRunner interface {
	RunQuery(ctx context.Context, query string, args ...any) (*warehouse.ResultSet, error)
}

// AuditAppender durably records one attempt or returns an error.
type AuditAppender interface {
	Append(ctx context.Context, rec *auditmodels.ExecutionAttempt) error
}

// Request is one governed execution.
type Request struct {
	PlaybookID   string
	Purpose      string
	Principal    string
	Organization string
}

// Result is returned only when the query succeeded and its audit record is durable.
type Result struct {
	PlaybookID   string    `json:"playbook_id"`
	PlaybookName string    `json:"playbook_name"`
	Columns      []string  `json:"columns"`
	Rows         [][]any   `json:"rows"`
	RowCount     int       `json:"row_count"`
	AuditID      uuid.UUID `json:"audit_id"`
	ExecutedAt   time.Time `json:"executed_at"`
}

type Gateway struct {
	playbooks  PlaybookLookup
	runner     QueryRunner
	audit      AuditAppender
	logger     *slog.Logger
	metrics    *metrics.Metrics
	defaultOrg string
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithDefaultOrganization sets the organization recorded when the caller has none.
func WithDefaultOrganization(org string) Option {
	return func(g *Gateway) {
		g.defaultOrg = org
	}
}

func New(playbooks PlaybookLookup, runner QueryRunner, audit AuditAppender, opts ...Option) *Gateway {
	g := &Gateway{
		playbooks:  playbooks,
		runner:     runner,
		audit:      audit,
		logger:     slog.Default(),
		defaultOrg: "Dashboard",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Execute runs a playbook under the purpose-capture policy.
//
// A blank purpose is rejected before anything is read, queried or written.
// Otherwise the template runs, then one audit record with the true outcome is
// appended. Query failures surface as query_execution_failed after the FAILED
// record is durable; a failed audit write surfaces as audit_write_failed and
// no result is returned, even if the query itself succeeded.
func (g *Gateway) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	requestID := requestcontext.RequestID(ctx)

	purpose := strings.TrimSpace(req.Purpose)
	if purpose == "" {
		g.metrics.IncRejected("missing_purpose")
		return nil, dErrors.New(dErrors.CodeMissingPurpose, "a business purpose is required to run a playbook")
	}
	principal := strings.TrimSpace(req.Principal)
	if principal == "" {
		g.metrics.IncRejected("unauthenticated")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "an authenticated principal is required")
	}
	org := strings.TrimSpace(req.Organization)
	if org == "" {
		org = g.defaultOrg
	}

	pb, err := g.playbooks.Get(ctx, req.PlaybookID)
	if err != nil {
		g.metrics.IncRejected(string(dErrors.CodeOf(err)))
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "execution.Execute", trace.WithAttributes(
		attribute.String("playbook.id", pb.ID),
		attribute.String("playbook.category", pb.Category),
	))
	defer span.End()

	rs, queryErr := g.runner.RunQuery(ctx, pb.QueryTemplate)
	status := auditmodels.StatusSuccess
	if queryErr != nil {
		status = auditmodels.StatusFailed
		span.RecordError(queryErr)
	}

	rec, err := auditmodels.NewExecutionAttempt(pb.Name, principal, org, purpose, status, requestcontext.Now(ctx))
	if err != nil {
		span.SetStatus(codes.Error, "audit record rejected")
		return nil, dErrors.Wrap(err, dErrors.CodeAuditWrite, "audit record could not be built")
	}
	span.SetAttributes(attribute.String("audit.id", rec.AuditID.String()), attribute.String("audit.status", string(status)))

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := g.audit.Append(auditCtx, rec); err != nil {
		span.SetStatus(codes.Error, "audit write failed")
		g.metrics.IncExecution("audit_write_failed")
		g.logger.ErrorContext(ctx, "execution not recorded; withholding result",
			"log_type", "audit",
			"request_id", requestID,
			"playbook_id", pb.ID,
			"executed_by", principal,
			"query_status", status,
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeAuditWrite) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeAuditWrite, "audit record could not be persisted")
	}

	g.metrics.IncExecution(string(status))
	g.metrics.ObserveExecute(start)
	g.logger.InfoContext(ctx, "playbook executed",
		"log_type", "audit",
		"request_id", requestID,
		"audit_id", rec.AuditID,
		"playbook_id", pb.ID,
		"playbook", pb.Name,
		"executed_by", principal,
		"organization", org,
		"status", status,
	)

	if queryErr != nil {
		span.SetStatus(codes.Error, "query failed")
		return nil, dErrors.Wrap(queryErr, dErrors.CodeQueryExecution,
			"playbook query failed; attempt recorded as "+rec.AuditID.String())
	}

	if rs == nil {
		rs = &warehouse.ResultSet{Rows: [][]any{}}
	}
	g.metrics.ObserveRows(rs.RowCount())
	return &Result{
		PlaybookID:   pb.ID,
		PlaybookName: pb.Name,
		Columns:      rs.Columns,
		Rows:         rs.Rows,
		RowCount:     rs.RowCount(),
		AuditID:      rec.AuditID,
		ExecutedAt:   rec.Timestamp,
	}, nil
}
