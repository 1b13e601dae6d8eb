package search

import (
	"context"
	"sync"
	"time"
)

// Placeholder bounds rendered while the index is still empty, roughly
// matching the collection's period.
const (
	placeholderMinYear = 1500
	placeholderMaxYear = 1800
)

// yearCache is a soft process-wide cache of the global min and max
// publication year. An absent pair is never cached, so the first books
// to arrive become visible on the next request.
type yearCache struct {
	mu      sync.RWMutex
	min     int
	max     int
	fetched time.Time
	ttl     time.Duration
}

func newYearCache(ttl time.Duration) *yearCache {
	return &yearCache{ttl: ttl}
}

// get returns the cached bounds, refreshing through fetch when the
// entry is stale or missing. Fetch failures fall back to placeholders
// without poisoning the cache.
func (c *yearCache) get(ctx context.Context, fetch func(context.Context) (int, int, bool, error)) (int, int, error) {
	c.mu.RLock()
	if !c.fetched.IsZero() && time.Since(c.fetched) < c.ttl {
		minYear, maxYear := c.min, c.max
		c.mu.RUnlock()
		return minYear, maxYear, nil
	}
	c.mu.RUnlock()

	minYear, maxYear, ok, err := fetch(ctx)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return placeholderMinYear, placeholderMaxYear, nil
	}

	c.mu.Lock()
	c.min, c.max = minYear, maxYear
	c.fetched = time.Now()
	c.mu.Unlock()
	return minYear, maxYear, nil
}

// invalidate drops the cached pair. Called after index mutations.
func (c *yearCache) invalidate() {
	c.mu.Lock()
	c.fetched = time.Time{}
	c.mu.Unlock()
}
