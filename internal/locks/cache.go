package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source yields the current set of active locks.
type Source interface {
	Active(ctx context.Context) (Set, error)
}

// SharedCache is an optional second-level cache shared between processes.
type SharedCache interface {
	Get(ctx context.Context) ([]Lock, bool, error)
	Put(ctx context.Context, rows []Lock, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Cache is a read-through TTL cache over a Repo. Concurrent misses collapse
// into a single repo read.
type Cache struct {
	repo   Repo
	shared SharedCache
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	set      Set
	loadedAt time.Time
	valid    bool
	gen      uint64 // bumped by Invalidate
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithShared adds a second-level cache.
func WithShared(s SharedCache) CacheOption {
	return func(c *Cache) { c.shared = s }
}

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a Cache with the given TTL. A zero TTL disables local
// caching; every call reads through.
func NewCache(repo Repo, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{repo: repo, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Active returns the cached set, reloading it when stale.
func (c *Cache) Active(ctx context.Context) (Set, error) {
	c.mu.RLock()
	if c.valid && c.now().Sub(c.loadedAt) < c.ttl {
		s := c.set
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("active", func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		return Set{}, err
	}
	return v.(Set), nil
}

// load reads the set. A load that overlaps an Invalidate still returns
// what it read to its callers but does not cache it.
func (c *Cache) load(ctx context.Context) (Set, error) {
	gen := c.generation()
	if c.shared != nil {
		rows, ok, err := c.shared.Get(ctx)
		if err == nil && ok {
			return c.store(rows, gen), nil
		}
	}

	rows, err := c.repo.ListActive(ctx)
	if err != nil {
		return Set{}, fmt.Errorf("list active locks: %w", err)
	}
	if c.shared != nil && c.generation() == gen {
		// Shared cache errors only cost a reload elsewhere.
		_ = c.shared.Put(ctx, rows, c.ttl)
	}
	return c.store(rows, gen), nil
}

func (c *Cache) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

func (c *Cache) store(rows []Lock, gen uint64) Set {
	s := NewSet(rows)
	c.mu.Lock()
	if c.gen == gen {
		c.set = s
		c.loadedAt = c.now()
		c.valid = true
	}
	c.mu.Unlock()
	return s
}

// Invalidate drops the local and shared cached sets. Loads already in
// flight are not cached.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.valid = false
	c.gen++
	c.mu.Unlock()
	c.group.Forget("active")
	if c.shared != nil {
		return c.shared.Invalidate(ctx)
	}
	return nil
}
