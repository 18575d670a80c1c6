package progress

import (
	"context"

	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/redis"
)

// CacheInvalidator retires every cached dashboard by bumping the cache
// generation that cacheKey folds into each key. Entries written under an
// older generation are never read again and expire on their own TTL.
type CacheInvalidator struct {
	cache redis.Cache
	logg  *logger.Logger
}

// NewCacheInvalidator returns an invalidator over cache. A nil cache yields
// an invalidator that does nothing.
func NewCacheInvalidator(cache redis.Cache, logg *logger.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, logg: logg}
}

// Invalidate never fails the write that triggered it; a failed bump leaves
// the TTL as the only bound on staleness.
func (i *CacheInvalidator) Invalidate(ctx context.Context) {
	if i == nil || i.cache == nil {
		return
	}
	if _, err := i.cache.Incr(ctx, i.cache.DashboardKey(generationCacheKind)); err != nil {
		i.logg.Warn(i.logg.WithField(ctx, "error", err.Error()), "dashboard cache invalidation failed")
	}
}
