package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"insighthub/internal/alert/detector"
	"insighthub/internal/alert/metrics"
	"insighthub/internal/alert/models"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/requestcontext"
)

var tracer = otel.Tracer("insighthub/internal/alert")

type Store interface {
	ListOpen(ctx context.Context) ([]*models.Alert, error)
	Acknowledge(ctx context.Context, alertID string, now time.Time) (*models.Alert, error)
}

type Detector interface {
	RunDetection(ctx context.Context) (*detector.Receipt, error)
}

// Service manages open alerts and their one-way acknowledgement.
type Service struct {
	store    Store
	detector Detector
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

func WithDetector(d Detector) Option {
	return func(s *Service) {
		s.detector = d
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListOpen returns unacknowledged alerts in triage order.
func (s *Service) ListOpen(ctx context.Context) ([]*models.Alert, error) {
	alerts, err := s.store.ListOpen(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "alert store unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "alert store unavailable")
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	models.SortForTriage(alerts)
	c := models.CountBySeverity(alerts)
	s.metrics.SetOpen(c.Critical, c.High, c.Medium, c.Other)
	return alerts, nil
}

// SeverityCounts summarizes open alerts per severity bucket.
func (s *Service) SeverityCounts(ctx context.Context) (models.SeverityCounts, error) {
	alerts, err := s.ListOpen(ctx)
	if err != nil {
		return models.SeverityCounts{}, err
	}
	return models.CountBySeverity(alerts), nil
}

// Acknowledge moves an open alert to acknowledged and returns its new state.
// An already acknowledged alert yields already_acknowledged and is not restamped.
func (s *Service) Acknowledge(ctx context.Context, alertID string) (*models.Alert, error) {
	alertID = strings.TrimSpace(alertID)
	if alertID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "alert id is required")
	}

	ctx, span := tracer.Start(ctx, "alert.Acknowledge")
	defer span.End()
	span.SetAttributes(attribute.String("alert.id", alertID))

	a, err := s.store.Acknowledge(ctx, alertID, requestcontext.Now(ctx))
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "alert not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			s.metrics.IncAckConflict()
			return nil, dErrors.New(dErrors.CodeAlreadyAcknowledged, "alert is already acknowledged")
		default:
			span.SetStatus(codes.Error, "acknowledge failed")
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "alert store unavailable")
		}
	}

	s.metrics.IncAcknowledged()
	s.logger.InfoContext(ctx, "alert acknowledged",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"alert_id", a.AlertID,
		"severity", a.Severity,
		"acknowledged_by", requestcontext.Principal(ctx),
	)
	return a, nil
}

// TriggerDetection asks the external detector to run. It does not wait for
// alerts to appear; callers re-list when they choose.
func (s *Service) TriggerDetection(ctx context.Context) (*detector.Receipt, error) {
	if s.detector == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "anomaly detector is not configured")
	}

	ctx, span := tracer.Start(ctx, "alert.TriggerDetection")
	defer span.End()

	receipt, err := s.detector.RunDetection(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detection failed")
		s.metrics.IncDetection("failed")
		s.logger.ErrorContext(ctx, "anomaly detection trigger failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeExternalService, "anomaly detector failed")
	}

	s.metrics.IncDetection(receipt.Status)
	s.logger.InfoContext(ctx, "anomaly detection triggered",
		"request_id", requestcontext.RequestID(ctx),
		"run_id", receipt.RunID,
		"status", receipt.Status,
		"requested_by", requestcontext.Principal(ctx),
	)
	return receipt, nil
}
