package cache

import (
	"sync"
	"sync/atomic"

	"github.com/moznion/go-optional"
)

// Cache keeps computed indicator columns so that simulations over the same
// series can share them. Stored slices must be treated as read-only.
type Cache interface {
	Get(key string) optional.Option[[]float64]
	Set(key string, values []float64)
	Reset()
}

// Stats counts cache lookups.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// CacheV1 is a Cache safe for concurrent use by sweep workers.
type CacheV1 struct {
	mu      sync.RWMutex
	columns map[string][]float64
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewCacheV1() *CacheV1 {
	return &CacheV1{
		columns: make(map[string][]float64),
	}
}

// Get implements cache.Cache.
func (c *CacheV1) Get(key string) optional.Option[[]float64] {
	c.mu.RLock()
	values, ok := c.columns[key]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)

		return optional.None[[]float64]()
	}

	c.hits.Add(1)

	return optional.Some(values)
}

// Set implements cache.Cache. The first value stored under a key wins.
func (c *CacheV1) Set(key string, values []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.columns[key]; !exists {
		c.columns[key] = values
	}
}

// Reset implements cache.Cache.
func (c *CacheV1) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.columns = make(map[string][]float64)
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns the lookup counters.
func (c *CacheV1) Stats() Stats {
	c.mu.RLock()
	entries := len(c.columns)
	c.mu.RUnlock()

	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}
}
