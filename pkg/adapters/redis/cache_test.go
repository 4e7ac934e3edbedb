package redis_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/canonry/canonry/pkg/adapters/memory"
	"github.com/canonry/canonry/pkg/adapters/redis"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProvider wraps a provider and counts Snapshot calls.
type countingProvider struct {
	ports.SnapshotProvider
	calls atomic.Int64
}

func (c *countingProvider) Snapshot(ctx context.Context, fandomID string) (*domain.Snapshot, error) {
	c.calls.Add(1)
	return c.SnapshotProvider.Snapshot(ctx, fandomID)
}

func seedSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Fandom: domain.Fandom{ID: "hp", Name: "Wizarding World"},
		Tags: []domain.Tag{
			{ID: "tag-a", Name: "Alpha", FandomID: "hp"},
			{ID: "tag-b", Name: "Beta", FandomID: "hp"},
		},
	}
}

func setup(t *testing.T, opts ...redis.Option) (*miniredis.Miniredis, *countingProvider, *redis.Cache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})

	inner, err := memory.NewFromSnapshots(seedSnapshot())
	require.NoError(t, err)
	counting := &countingProvider{SnapshotProvider: inner}

	return mr, counting, redis.NewFromClient(client, counting, opts...)
}

func TestCacheContract(t *testing.T) {
	_, _, cache := setup(t)
	ports.RunSnapshotProviderContract(t, cache, seedSnapshot())
}

func TestCacheReadThrough(t *testing.T) {
	mr, counting, cache := setup(t)
	ctx := context.Background()

	// 1. First read populates the cache.
	snap, err := cache.Snapshot(ctx, "hp")
	require.NoError(t, err)
	assert.Len(t, snap.Tags, 2)
	assert.EqualValues(t, 1, counting.calls.Load())
	assert.True(t, mr.Exists("canonry:snapshot:hp"))

	// 2. Second read is served from Redis.
	_, err = cache.Snapshot(ctx, "hp")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counting.calls.Load(), "second read must not hit the inner provider")
}

func TestCacheTTLExpiration(t *testing.T) {
	mr, counting, cache := setup(t, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	_, err := cache.Snapshot(ctx, "hp")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counting.calls.Load())

	mr.FastForward(2 * time.Second)

	_, err = cache.Snapshot(ctx, "hp")
	require.NoError(t, err)
	assert.EqualValues(t, 2, counting.calls.Load(), "expired entries reload from the inner provider")
}

func TestCacheInvalidate(t *testing.T) {
	mr, counting, cache := setup(t)
	ctx := context.Background()

	_, err := cache.Snapshot(ctx, "hp")
	require.NoError(t, err)
	require.True(t, mr.Exists("canonry:snapshot:hp"))

	require.NoError(t, cache.Invalidate(ctx, "hp"))
	assert.False(t, mr.Exists("canonry:snapshot:hp"))

	_, err = cache.Snapshot(ctx, "hp")
	require.NoError(t, err)
	assert.EqualValues(t, 2, counting.calls.Load())
}

func TestCachePrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	inner, err := memory.NewFromSnapshots(seedSnapshot())
	require.NoError(t, err)

	cache := redis.NewFromClient(client, inner, redis.WithPrefix("custom:app:"))
	_, err = cache.Snapshot(context.Background(), "hp")
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:hp"), "expected key with custom prefix to exist")
}

func TestCacheUnknownFandomPassesThrough(t *testing.T) {
	_, _, cache := setup(t)
	_, err := cache.Snapshot(context.Background(), "no-such")
	assert.ErrorIs(t, err, domain.ErrFandomNotFound)
}

func TestCacheSurvivesRedisOutage(t *testing.T) {
	mr, counting, cache := setup(t)
	mr.Close()

	snap, err := cache.Snapshot(context.Background(), "hp")
	require.NoError(t, err, "cache trouble must degrade to the inner provider")
	assert.Len(t, snap.Tags, 2)
	assert.EqualValues(t, 1, counting.calls.Load())
}

func TestCacheFlush(t *testing.T) {
	mr, _, cache := setup(t)
	ctx := context.Background()

	_, err := cache.Snapshot(ctx, "hp")
	require.NoError(t, err)
	require.True(t, mr.Exists("canonry:snapshot:hp"))

	require.NoError(t, cache.Flush(ctx))
	assert.False(t, mr.Exists("canonry:snapshot:hp"))
}
