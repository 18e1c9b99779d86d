package redis

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/turtacn/carverdict/internal/domain/lifespan"
	"github.com/turtacn/carverdict/internal/infrastructure/monitoring/logging"
)

const (
	lifespanKeyspace       = "lifespan:"
	defaultLifespanTimeout = 50 * time.Millisecond
)

// LifespanCache adapts Cache to lifespan.Cache so that resolved year
// lifespans are shared across API server replicas.  Redis failures degrade to
// misses; the resolver then recomputes, which yields the same value.
type LifespanCache struct {
	cache   Cache
	logger  logging.Logger
	ttl     time.Duration
	timeout time.Duration
	version string
}

var _ lifespan.ComputeCache = (*LifespanCache)(nil)

// LifespanCacheOption configures NewLifespanCache.
type LifespanCacheOption func(*LifespanCache)

// WithLifespanTTL sets the entry lifetime.  Zero uses the cache default.
func WithLifespanTTL(ttl time.Duration) LifespanCacheOption {
	return func(c *LifespanCache) { c.ttl = ttl }
}

// WithLifespanTimeout bounds each redis round trip.
func WithLifespanTimeout(d time.Duration) LifespanCacheOption {
	return func(c *LifespanCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCatalogVersion namespaces keys by reference catalog version so that a
// catalog upgrade never serves lifespans computed from older data.
func WithCatalogVersion(version string) LifespanCacheOption {
	return func(c *LifespanCache) { c.version = version }
}

// NewLifespanCache wraps cache.
func NewLifespanCache(cache Cache, log logging.Logger, opts ...LifespanCacheOption) *LifespanCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &LifespanCache{cache: cache, logger: log, timeout: defaultLifespanTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LifespanCache) key(k string) string {
	if c.version == "" {
		return lifespanKeyspace + k
	}
	return lifespanKeyspace + c.version + ":" + k
}

// Get implements lifespan.Cache.
func (c *LifespanCache) Get(key string) (lifespan.YearLifespan, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var v lifespan.YearLifespan
	if err := c.cache.Get(ctx, c.key(key), &v); err != nil {
		if !stderrors.Is(err, ErrCacheMiss) {
			c.logger.Warn("lifespan cache read failed", logging.String("key", key), logging.Err(err))
		}
		return lifespan.YearLifespan{}, false
	}
	return v, true
}

// Set implements lifespan.Cache.
func (c *LifespanCache) Set(key string, v lifespan.YearLifespan) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.cache.Set(ctx, c.key(key), v, c.ttl); err != nil {
		c.logger.Warn("lifespan cache write failed", logging.String("key", key), logging.Err(err))
	}
}

// GetOrCompute implements lifespan.ComputeCache.  Concurrent misses for one
// key within this process share a single compute call.  When redis fails the
// value is computed locally and reported as a miss.
func (c *LifespanCache) GetOrCompute(key string, compute func() lifespan.YearLifespan) (lifespan.YearLifespan, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var computed *lifespan.YearLifespan
	var v lifespan.YearLifespan
	err := c.cache.GetOrSet(ctx, c.key(key), &v, c.ttl, func(context.Context) (interface{}, error) {
		fresh := compute()
		computed = &fresh
		return fresh, nil
	})
	if err != nil {
		c.logger.Warn("lifespan cache read failed", logging.String("key", key), logging.Err(err))
		if computed != nil {
			return *computed, false
		}
		return compute(), false
	}
	return v, computed == nil
}

// Invalidate drops every cached lifespan for the configured catalog version.
func (c *LifespanCache) Invalidate(ctx context.Context) (int64, error) {
	return c.cache.DeleteByPrefix(ctx, c.key(""))
}
