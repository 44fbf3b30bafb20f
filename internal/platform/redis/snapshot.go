package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache stores read-model snapshots as JSON under a key prefix.
// Entries expire after the configured TTL; there is no write-through.
type SnapshotCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewSnapshotCache(rdb redis.Cmdable, prefix string, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *SnapshotCache) key(k string) string {
	return c.prefix + ":" + k
}

// Load decodes the cached value into dst. A miss returns false with no error.
func (c *SnapshotCache) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return true, nil
}

func (c *SnapshotCache) Store(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, c.key(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops every snapshot under the prefix.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", c.prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
