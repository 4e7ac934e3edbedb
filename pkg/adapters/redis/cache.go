// Package redis provides a read-through snapshot cache in front of a slower
// ports.SnapshotProvider, typically the Loam or file adapter. Validation
// loads a full catalog per run, so hot fandoms benefit from a shared cache.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "canonry:snapshot:"
	defaultTTL    = 5 * time.Minute
)

// Cache implements ports.SnapshotProvider by caching serialized snapshots
// in Redis. Cache trouble never fails a read: misses, corrupt entries and
// Redis errors all fall through to the inner provider.
type Cache struct {
	client *backend.Client
	inner  ports.SnapshotProvider
	prefix string
	ttl    time.Duration
}

// Option configures the cache.
type Option func(*Cache)

// WithTTL sets how long cached snapshots live. Defaults to 5 minutes.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix sets the key prefix. Defaults to "canonry:snapshot:".
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewFromClient creates a cache over an existing Redis client.
func NewFromClient(client *backend.Client, inner ports.SnapshotProvider, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		inner:  inner,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the cached catalog when present, otherwise loads it from
// the inner provider and stores it best-effort.
func (c *Cache) Snapshot(ctx context.Context, fandomID string) (*domain.Snapshot, error) {
	key := c.prefix + fandomID

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var snap domain.Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return &snap, nil
		}
		// Corrupt entry: drop it and reload.
		c.client.Del(ctx, key)
	}

	snap, err := c.inner.Snapshot(ctx, fandomID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snap); err == nil {
		c.client.Set(ctx, key, data, c.ttl)
	}
	return snap, nil
}

// Fandoms delegates to the inner provider. Listings are cheap relative to
// full catalogs and staleness there confuses catalog tooling.
func (c *Cache) Fandoms(ctx context.Context) ([]domain.Fandom, error) {
	return c.inner.Fandoms(ctx)
}

// Invalidate drops the cached snapshots for the given fandoms.
func (c *Cache) Invalidate(ctx context.Context, fandomIDs ...string) error {
	if len(fandomIDs) == 0 {
		return nil
	}
	keys := make([]string, len(fandomIDs))
	for i, id := range fandomIDs {
		keys[i] = c.prefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}
	return nil
}

// Flush drops every cached snapshot under the cache prefix.
func (c *Cache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis flush failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis flush scan failed: %w", err)
	}
	return nil
}

// Watch exposes the inner provider's change feed, so consumers behind the
// cache keep their hot-reload behavior.
func (c *Cache) Watch(ctx context.Context) (<-chan struct{}, error) {
	watchable, ok := c.inner.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("inner provider does not support watching")
	}
	return watchable.Watch(ctx)
}

// AutoInvalidate flushes the cache whenever the inner provider reports a
// catalog change. It requires the inner provider to be ports.Watchable and
// runs until the context is cancelled.
func (c *Cache) AutoInvalidate(ctx context.Context) error {
	events, err := c.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Best effort: a failed flush only means staler reads
				// until the TTL catches up.
				_ = c.Flush(ctx)
			}
		}
	}()
	return nil
}
