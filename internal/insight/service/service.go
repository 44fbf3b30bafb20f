package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"insighthub/internal/insight/metrics"
	"insighthub/internal/insight/models"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/requestcontext"
)

var tracer = otel.Tracer("insighthub/internal/insight")

type Store interface {
	ListCurrent(ctx context.Context, category models.Category) ([]*models.Insight, error)
}

// Generator produces one explanation; *generator.Generator in production.
type Generator interface {
	Explain(ctx context.Context, ageGroup, region string, riskScore, m2, m3, m4 float64) (string, error)
}

// ProcedureCaller runs a warehouse procedure; *warehouse.Client in production.
type ProcedureCaller interface {
	Call(ctx context.Context, procedure string) error
}

type invalidator interface {
	Invalidate(ctx context.Context) error
}

// Service serves generated insights and custom explanation requests.
type Service struct {
	store     Store
	generator Generator
	batch     ProcedureCaller
	batchProc string
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

func WithGenerator(g Generator) Option {
	return func(s *Service) {
		s.generator = g
	}
}

// WithBatchProcedure enables GenerateAll.
func WithBatchProcedure(caller ProcedureCaller, procedure string) Option {
	return func(s *Service) {
		s.batch = caller
		s.batchProc = procedure
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCurrent returns generated insights, highest risk first.
func (s *Service) ListCurrent(ctx context.Context, category string) ([]*models.Insight, error) {
	out, err := s.store.ListCurrent(ctx, models.NormalizeCategory(category))
	if err != nil {
		s.logger.ErrorContext(ctx, "insight store unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "insights unavailable")
	}
	if out == nil {
		out = []*models.Insight{}
	}
	return out, nil
}

// RequestExplanation validates the segment and asks the generator once.
func (s *Service) RequestExplanation(ctx context.Context, req models.ExplanationRequest) (*models.Explanation, error) {
	if err := req.Validate(); err != nil {
		s.metrics.IncExplanation("rejected")
		return nil, err
	}
	if s.generator == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "explanation generator is not configured")
	}

	ctx, span := tracer.Start(ctx, "insight.RequestExplanation")
	defer span.End()
	span.SetAttributes(
		attribute.String("insight.age_group", req.AgeGroup),
		attribute.String("insight.region", req.Region),
	)

	start := time.Now()
	text, err := s.generator.Explain(ctx, req.AgeGroup, req.Region, req.RiskScore, req.Metric2, req.Metric3, req.Metric4)
	s.metrics.ObserveExplain(start)
	if err == nil && strings.TrimSpace(text) == "" {
		err = dErrors.New(dErrors.CodeExternalService, "generator returned no text")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		s.metrics.IncExplanation("failed")
		s.logger.ErrorContext(ctx, "explanation generation failed",
			"request_id", requestcontext.RequestID(ctx),
			"age_group", req.AgeGroup,
			"region", req.Region,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeExternalService, "explanation generator failed")
	}

	s.metrics.IncExplanation("generated")
	return &models.Explanation{
		AgeGroup:    req.AgeGroup,
		Region:      req.Region,
		Text:        text,
		GeneratedAt: requestcontext.Now(ctx),
	}, nil
}

// GenerateAll runs the batch procedure and drops cached listings.
func (s *Service) GenerateAll(ctx context.Context) error {
	if s.batch == nil {
		return dErrors.New(dErrors.CodeUnavailable, "batch insight generation is not configured")
	}

	ctx, span := tracer.Start(ctx, "insight.GenerateAll")
	defer span.End()

	if err := s.batch.Call(ctx, s.batchProc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch generation failed")
		s.metrics.IncBatch("failed")
		s.logger.ErrorContext(ctx, "batch insight generation failed",
			"request_id", requestcontext.RequestID(ctx),
			"procedure", s.batchProc,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeExternalService, "batch insight generation failed")
	}
	s.metrics.IncBatch("completed")

	if inv, ok := s.store.(invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate insight cache", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "batch insight generation completed",
		"request_id", requestcontext.RequestID(ctx),
		"requested_by", requestcontext.Principal(ctx),
	)
	return nil
}
