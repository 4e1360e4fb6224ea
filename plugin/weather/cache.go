package weather

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache defaults.
const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 10 * time.Minute
)

// CachedService decorates a Service with an expiring LRU keyed by normalized place name.
// Only successful lookups are cached.
type CachedService struct {
	next  Service
	cache *expirable.LRU[string, *Current]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedService wraps next. Non-positive size or ttl select the defaults.
func NewCachedService(next Service, size int, ttl time.Duration) *CachedService {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedService{
		next:  next,
		cache: expirable.NewLRU[string, *Current](size, nil, ttl),
	}
}

// Lookup implements Service.
func (c *CachedService) Lookup(ctx context.Context, place string) (*Current, error) {
	key := cacheKey(place)
	if current, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		cp := *current
		return &cp, nil
	}
	c.misses.Add(1)

	current, err := c.next.Lookup(ctx, place)
	if err != nil {
		return nil, err
	}
	stored := *current
	c.cache.Add(key, &stored)
	return current, nil
}

// Stats returns the cache hit and miss counts.
func (c *CachedService) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func cacheKey(place string) string {
	return strings.ToLower(strings.Join(strings.Fields(place), " "))
}

// Ensure CachedService implements Service
var _ Service = (*CachedService)(nil)
