package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"insighthub/internal/playbook/models"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/requestcontext"
)

type Store interface {
	ListActive(ctx context.Context, category string) ([]*models.Playbook, error)
	FindActiveByID(ctx context.Context, id string) (*models.Playbook, error)
	Categories(ctx context.Context) ([]string, error)
}

// Service exposes the read-only playbook catalog.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListActive returns active playbooks ordered by category then name. An empty
// category lists everything. Never returns nil on success.
func (s *Service) ListActive(ctx context.Context, category string) ([]*models.Playbook, error) {
	playbooks, err := s.store.ListActive(ctx, strings.TrimSpace(category))
	if err != nil {
		s.logger.ErrorContext(ctx, "playbook catalog unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "playbook catalog unavailable")
	}
	if playbooks == nil {
		playbooks = []*models.Playbook{}
	}
	return playbooks, nil
}

// Get returns one active playbook.
func (s *Service) Get(ctx context.Context, id string) (*models.Playbook, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "playbook id is required")
	}
	p, err := s.store.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "playbook not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "playbook catalog unavailable")
	}
	return p, nil
}

// Categories lists distinct categories of active playbooks.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "playbook catalog unavailable")
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}
