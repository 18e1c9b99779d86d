package lifespan

import "sync"

// Cache memoizes resolved year lifespans by "make|model|year".  It is an
// optimization only: Resolve returns identical results whether or not the
// cache is warm.  Implementations must be safe for concurrent use and must
// treat stored values as immutable.
type Cache interface {
	Get(key string) (YearLifespan, bool)
	Set(key string, v YearLifespan)
}

// ComputeCache is a Cache that can fill a miss itself, so that concurrent
// misses for one key share a single compute call.  hit reports whether the
// value came from the cache.
type ComputeCache interface {
	Cache
	GetOrCompute(key string, compute func() YearLifespan) (v YearLifespan, hit bool)
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(string) (YearLifespan, bool) { return YearLifespan{}, false }
func (NopCache) Set(string, YearLifespan)        {}

// DefaultMemoryCacheSize bounds a MemoryCache created with a non-positive size.
const DefaultMemoryCacheSize = 4096

// MemoryCache is a bounded in-process Cache.  When full, the oldest key is
// evicted first.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]YearLifespan
	order   []string
	max     int
}

// NewMemoryCache returns a MemoryCache holding at most maxEntries values.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryCacheSize
	}
	return &MemoryCache{
		entries: make(map[string]YearLifespan),
		max:     maxEntries,
	}
}

func (c *MemoryCache) Get(key string) (YearLifespan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores v under key.  Existing keys are left untouched: resolution is
// idempotent, so the first value written is as good as any later one.
func (c *MemoryCache) Set(key string, v YearLifespan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = v
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
