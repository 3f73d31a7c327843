// Package cache holds loaded survey datasets for a bounded time.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"retentionpulse/pkg/contracts/domain"
)

// DefaultLoadTimeout bounds a shared load once every waiting caller has gone.
const DefaultLoadTimeout = 2 * time.Minute

// LoadFunc produces the dataset for a key. A nil dataset with a nil error
// means the source holds no data; that result is cached like any other.
type LoadFunc func(ctx context.Context) (*domain.Dataset, error)

type entry struct {
	dataset   *domain.Dataset
	expiresAt time.Time
}

// Stats is a snapshot of cache counters
type Stats struct {
	Entries  int           `json:"entries"`
	Hits     int64         `json:"hits"`
	Misses   int64         `json:"misses"`
	HitRatio float64       `json:"hit_ratio"`
	TTL      time.Duration `json:"ttl"`
	LastLoad time.Time     `json:"last_load,omitempty"`
}

// DatasetCache memoizes dataset loads per source descriptor. Concurrent
// misses for one key share a single load. Datasets are replaced, never
// mutated, so a reader keeps a consistent value after a reload.
type DatasetCache struct {
	mu          sync.RWMutex
	entries     map[string]entry
	generation  map[string]uint64
	group       singleflight.Group
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time
	hits        int64
	misses      int64
	lastLoad    time.Time
}

// Option configures a DatasetCache
type Option func(*DatasetCache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *DatasetCache) { c.now = now }
}

// WithLoadTimeout overrides DefaultLoadTimeout
func WithLoadTimeout(d time.Duration) Option {
	return func(c *DatasetCache) { c.loadTimeout = d }
}

// New creates a cache whose entries live for ttl
func New(ttl time.Duration, opts ...Option) *DatasetCache {
	c := &DatasetCache{
		entries:     make(map[string]entry),
		generation:  make(map[string]uint64),
		ttl:         ttl,
		loadTimeout: DefaultLoadTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live entry for key, if any.
func (c *DatasetCache) Get(key string) (*domain.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.dataset, true
}

// GetOrLoad returns the cached dataset for key or runs load. hit reports
// whether the value came from the cache. Load errors are returned to every
// waiting caller and never cached.
func (c *DatasetCache) GetOrLoad(ctx context.Context, key string, load LoadFunc) (ds *domain.Dataset, hit bool, err error) {
	if ds, ok := c.Get(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return ds, true, nil
	}

	c.mu.Lock()
	c.misses++
	gen := c.generation[key]
	c.mu.Unlock()

	ch := c.group.DoChan(key, func() (any, error) {
		// the load outlives a caller that gives up so other waiters still get it
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		ds, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, ds)
		return ds, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, fmt.Errorf("loading %s: %w", key, res.Err)
		}
		ds, _ := res.Val.(*domain.Dataset)
		return ds, false, nil
	}
}

// store publishes ds unless the key was invalidated while loading.
func (c *DatasetCache) store(key string, gen uint64, ds *domain.Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation[key] != gen {
		return
	}
	now := c.now()
	c.entries[key] = entry{dataset: ds, expiresAt: now.Add(c.ttl)}
	c.lastLoad = now
}

// Invalidate drops the entry for key; the next GetOrLoad reloads.
func (c *DatasetCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.generation[key]++
	c.group.Forget(key)
}

// InvalidateAll drops every entry
func (c *DatasetCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		c.generation[key]++
		c.group.Forget(key)
	}
	c.entries = make(map[string]entry)
}

// Stats returns cache counters
func (c *DatasetCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Entries:  len(c.entries),
		Hits:     c.hits,
		Misses:   c.misses,
		TTL:      c.ttl,
		LastLoad: c.lastLoad,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRatio = float64(c.hits) / float64(total)
	}
	return s
}
