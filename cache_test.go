package lifecycle

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*Cache, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(rdb), rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestCacheInvalidateDeletesMatchingKeys(t *testing.T) {
	cache, rdb, cleanup := setupCache(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, "ns:a", "1", 0).Err())
	require.NoError(t, rdb.Set(ctx, "ns:b", "2", 0).Err())
	require.NoError(t, rdb.Set(ctx, "other:c", "3", 0).Err())

	require.NoError(t, cache.Invalidate(ctx, "ns:*"))

	remaining, err := rdb.Keys(ctx, "*").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"other:c"}, remaining)
}

func TestCacheInvalidateEmptyNamespaceIsANoop(t *testing.T) {
	cache, _, cleanup := setupCache(t)
	defer cleanup()

	require.NoError(t, cache.Invalidate(context.Background(), "nothing:*"))
}

func TestAppListingKeyNamespacing(t *testing.T) {
	assert.Equal(t, "app-listing:user:42", AppListingKey("42"))

	cache, rdb, cleanup := setupCache(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, AppListingKey("42"), "cached", 0).Err())
	require.NoError(t, cache.InvalidateAppListings(ctx))

	exists, err := rdb.Exists(ctx, AppListingKey("42")).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
