package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"insighthub/internal/segment/models"
	dErrors "insighthub/pkg/domain-errors"
	"insighthub/pkg/platform/snapshot"
	"insighthub/pkg/requestcontext"
)

type Store interface {
	List(ctx context.Context) ([]*models.Segment, error)
	Totals(ctx context.Context) (models.Totals, error)
	GroupMeans(ctx context.Context, dim models.Dimension) ([]models.GroupMean, error)
}

const (
	overviewKey = "overview"
	listKey     = "list"
)

// Service serves the combined risk snapshot behind a read-model cache.
type Service struct {
	store  Store
	cache  snapshot.Cache
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache serves repeated reads from cache until its TTL lapses.
func WithCache(c snapshot.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns segments ordered by combined score, highest first.
func (s *Service) List(ctx context.Context) ([]*models.Segment, error) {
	var cached []*models.Segment
	if s.load(ctx, listKey, &cached) {
		return cached, nil
	}

	out, err := s.store.List(ctx)
	if err != nil {
		return nil, s.unavailable(ctx, err)
	}
	if out == nil {
		out = []*models.Segment{}
	}
	s.save(ctx, listKey, out)
	return out, nil
}

// Overview gathers totals and both group breakdowns concurrently. Any failure
// cancels the rest and the overview is not cached.
func (s *Service) Overview(ctx context.Context) (*models.Overview, error) {
	var cached models.Overview
	if s.load(ctx, overviewKey, &cached) {
		return &cached, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	out := &models.Overview{}

	g.Go(func() error {
		t, err := s.store.Totals(gctx)
		if err != nil {
			return err
		}
		out.Totals = t
		return nil
	})
	g.Go(func() error {
		m, err := s.store.GroupMeans(gctx, models.ByAgeGroup)
		if err != nil {
			return err
		}
		out.ByAgeGroup = m
		return nil
	})
	g.Go(func() error {
		m, err := s.store.GroupMeans(gctx, models.ByRegion)
		if err != nil {
			return err
		}
		out.ByRegion = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, s.unavailable(ctx, err)
	}
	if out.ByAgeGroup == nil {
		out.ByAgeGroup = []models.GroupMean{}
	}
	if out.ByRegion == nil {
		out.ByRegion = []models.GroupMean{}
	}
	s.save(ctx, overviewKey, out)
	return out, nil
}

func (s *Service) unavailable(ctx context.Context, err error) error {
	s.logger.ErrorContext(ctx, "segment snapshot unavailable",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "segment data unavailable")
}

func (s *Service) load(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Load(ctx, key, dst)
	if err != nil {
		s.logger.WarnContext(ctx, "segment cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *Service) save(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Store(ctx, key, v); err != nil {
		s.logger.WarnContext(ctx, "segment cache write failed", "key", key, "error", err)
	}
}
