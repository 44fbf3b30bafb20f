// Package service is the governed audit ledger. Appends are synchronous and
// fail-closed: if a record cannot be persisted the caller gets an
// AuditWrite error and must not report the execution as successful.
package service

import (
	"context"
	"log/slog"
	"time"

	"insighthub/internal/audit/metrics"
	"insighthub/internal/audit/models"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/requestcontext"
)

const (
	defaultPageLimit = 200
	maxPageLimit     = 1000
)

type Store interface {
	Append(ctx context.Context, rec *models.ExecutionAttempt) error
	Query(ctx context.Context, f models.Filter) ([]*models.ExecutionAttempt, error)
	Summary(ctx context.Context) (*models.Summary, error)
}

// Mirror receives persisted records for best-effort fan-out. Enqueue must not block.
type Mirror interface {
	Enqueue(rec *models.ExecutionAttempt)
}

type Service struct {
	store        Store
	mirror       Mirror
	logger       *slog.Logger
	metrics      *metrics.Metrics
	defaultLimit int
	maxLimit     int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithMirror(m Mirror) Option {
	return func(s *Service) {
		s.mirror = m
	}
}

// WithPageLimit overrides the default page size. maxLimit caps caller-supplied limits.
func WithPageLimit(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit >= s.defaultLimit {
			s.maxLimit = maxLimit
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       slog.Default(),
		defaultLimit: defaultPageLimit,
		maxLimit:     maxPageLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append persists one execution attempt. The record is durable when Append
// returns nil.
func (s *Service) Append(ctx context.Context, rec *models.ExecutionAttempt) error {
	if rec == nil {
		return dErrors.New(dErrors.CodeAuditWrite, "audit record is required")
	}
	if err := rec.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeAuditWrite, "audit record rejected")
	}

	start := time.Now()
	if err := s.store.Append(ctx, rec); err != nil {
		s.metrics.IncPersistFailures()
		s.logger.ErrorContext(ctx, "CRITICAL: audit ledger write failed",
			"log_type", "audit",
			"request_id", requestcontext.RequestID(ctx),
			"audit_id", rec.AuditID,
			"playbook", rec.PlaybookName,
			"status", rec.Status,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeAuditWrite, "audit record could not be persisted")
	}
	s.metrics.ObservePersist(start)
	s.metrics.IncAppended(string(rec.Status))

	if s.mirror != nil {
		s.mirror.Enqueue(rec)
	}
	return nil
}

// Query returns a newest-first page of the ledger.
func (s *Service) Query(ctx context.Context, f models.Filter) ([]*models.ExecutionAttempt, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidParameter, "status must be SUCCESS or FAILED")
	}
	f = f.Normalize(s.defaultLimit, s.maxLimit)
	records, err := s.store.Query(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "audit ledger query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit log unavailable")
	}
	if records == nil {
		records = []*models.ExecutionAttempt{}
	}
	return records, nil
}

// Summary aggregates the full ledger.
func (s *Service) Summary(ctx context.Context) (*models.Summary, error) {
	sum, err := s.store.Summary(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit log unavailable")
	}
	return sum, nil
}
