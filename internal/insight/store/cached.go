package store

import (
	"context"
	"log/slog"

	"insighthub/internal/insight/models"
	"insighthub/pkg/platform/snapshot"
)

// Cached serves listings from a shared snapshot cache. Cache faults fall
// through to the underlying store.
type Cached struct {
	next   Store
	cache  snapshot.Cache
	logger *slog.Logger
}

func NewCached(next Store, cache snapshot.Cache, logger *slog.Logger) *Cached {
	return &Cached{next: next, cache: cache, logger: logger}
}

func cacheKey(category models.Category) string {
	if category == "" {
		return "all"
	}
	return "category:" + string(category)
}

func (c *Cached) ListCurrent(ctx context.Context, category models.Category) ([]*models.Insight, error) {
	key := cacheKey(category)
	var cached []*models.Insight
	hit, err := c.cache.Load(ctx, key, &cached)
	if err != nil {
		c.logger.WarnContext(ctx, "insight cache read failed", "key", key, "error", err)
	}
	if hit {
		return cached, nil
	}

	out, err := c.next.ListCurrent(ctx, category)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Store(ctx, key, out); err != nil {
		c.logger.WarnContext(ctx, "insight cache write failed", "key", key, "error", err)
	}
	return out, nil
}

// Invalidate drops cached listings, e.g. after a batch regeneration.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.cache.Invalidate(ctx)
}
