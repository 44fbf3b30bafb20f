// Package snapshot defines the read-model cache used for dashboard listings
// and provides an in-process implementation for single-node deployments.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is implemented by Local and by the Redis snapshot cache.
type Cache interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	Store(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context) error
}

// Local keeps JSON-encoded snapshots so callers never share mutable values.
type Local struct {
	lru *expirable.LRU[string, []byte]
}

func NewLocal(size int, ttl time.Duration) *Local {
	return &Local{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (l *Local) Load(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := l.lru.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return true, nil
}

func (l *Local) Store(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	l.lru.Add(key, raw)
	return nil
}

func (l *Local) Invalidate(context.Context) error {
	l.lru.Purge()
	return nil
}
