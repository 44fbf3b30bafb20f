package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"insighthub/internal/playbook/models"
)

const categoriesKey = "\x00categories"

// Cached fronts a Store with short-lived LRU caches for the listing reads.
// Only successful reads are cached; misses and errors always reach the
// backing store. Lookups by id are never cached: the gateway resolves through
// them and must see deactivation immediately.
type Cached struct {
	next       Store
	lists      *expirable.LRU[string, []*models.Playbook]
	categories *expirable.LRU[string, []string]
}

func NewCached(next Store, size int, ttl time.Duration) *Cached {
	return &Cached{
		next:       next,
		lists:      expirable.NewLRU[string, []*models.Playbook](size, nil, ttl),
		categories: expirable.NewLRU[string, []string](1, nil, ttl),
	}
}

func (c *Cached) ListActive(ctx context.Context, category string) ([]*models.Playbook, error) {
	if cached, ok := c.lists.Get(category); ok {
		return append([]*models.Playbook(nil), cached...), nil
	}
	playbooks, err := c.next.ListActive(ctx, category)
	if err != nil {
		return nil, err
	}
	c.lists.Add(category, playbooks)
	return append([]*models.Playbook(nil), playbooks...), nil
}

func (c *Cached) FindActiveByID(ctx context.Context, id string) (*models.Playbook, error) {
	return c.next.FindActiveByID(ctx, id)
}

func (c *Cached) Categories(ctx context.Context) ([]string, error) {
	if cached, ok := c.categories.Get(categoriesKey); ok {
		return append([]string(nil), cached...), nil
	}
	categories, err := c.next.Categories(ctx)
	if err != nil {
		return nil, err
	}
	c.categories.Add(categoriesKey, categories)
	return append([]string(nil), categories...), nil
}

// Invalidate drops every cached entry, e.g. after reseeding.
func (c *Cached) Invalidate() {
	c.lists.Purge()
	c.categories.Purge()
}
