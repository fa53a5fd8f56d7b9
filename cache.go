package lifecycle

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const appListingKeyPrefix = "app-listing:user:"

// AppListingKey is the cache key holding a viewer's computed application
// listing. The read side uses it to populate the namespace; the create
// rule drops the whole namespace.
func AppListingKey(userID string) string {
	return appListingKeyPrefix + userID
}

// Cache deletes cache entries under a key-space prefix. It is the narrow
// invalidation surface lifecycle rules use; reads and writes of cached
// values belong to the callers that own the namespace.
type Cache struct {
	client redis.UniversalClient
}

func NewCache(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// Invalidate deletes every cache entry whose key matches the pattern.
func (c *Cache) Invalidate(ctx context.Context, pattern string) error {
	keys, err := c.client.Keys(ctx, pattern).Result()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "cache key scan failed")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "cache invalidation failed")
	}
	return nil
}

// InvalidateAppListings drops every per-viewer application listing so the
// next read recomputes it.
func (c *Cache) InvalidateAppListings(ctx context.Context) error {
	return c.Invalidate(ctx, appListingKeyPrefix+"*")
}
