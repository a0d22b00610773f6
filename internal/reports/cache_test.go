package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	businessID := uuid.New()
	ctx := context.Background()

	var miss Summary
	hit, err := cache.Get(ctx, businessID, "summary", &miss)
	require.NoError(t, err)
	require.False(t, hit)

	stored := Summary{GeneratedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, cache.Set(ctx, businessID, "summary", stored))

	var loaded Summary
	hit, err = cache.Get(ctx, businessID, "summary", &loaded)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, stored.GeneratedAt, loaded.GeneratedAt)
}

func TestCacheBumpInvalidatesAllReports(t *testing.T) {
	cache := newTestCache(t)
	businessID := uuid.New()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, businessID, "summary", Summary{}))
	require.NoError(t, cache.Set(ctx, businessID, "movements", MovementReport{}))

	require.NoError(t, cache.Bump(ctx, businessID))

	var s Summary
	hit, err := cache.Get(ctx, businessID, "summary", &s)
	require.NoError(t, err)
	require.False(t, hit)

	var m MovementReport
	hit, err = cache.Get(ctx, businessID, "movements", &m)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheScopedPerBusiness(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, cache.Set(ctx, first, "summary", Summary{}))
	require.NoError(t, cache.Bump(ctx, second))

	var s Summary
	hit, err := cache.Get(ctx, first, "summary", &s)
	require.NoError(t, err)
	require.True(t, hit, "bumping one business leaves others cached")
}

func TestNilCacheIsInert(t *testing.T) {
	var cache *Cache
	businessID := uuid.New()
	ctx := context.Background()

	require.NoError(t, cache.Bump(ctx, businessID))
	require.NoError(t, cache.Set(ctx, businessID, "summary", Summary{}))
	var s Summary
	hit, err := cache.Get(ctx, businessID, "summary", &s)
	require.NoError(t, err)
	require.False(t, hit)
}
