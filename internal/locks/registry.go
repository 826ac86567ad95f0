package locks

import (
	"context"
	"fmt"
	"time"
)

// Registry applies administrator lock changes and keeps the cache coherent.
type Registry struct {
	repo  Repo
	cache *Cache
	now   func() time.Time
}

// NewRegistry creates a Registry. cache may be nil.
func NewRegistry(repo Repo, cache *Cache) *Registry {
	return &Registry{repo: repo, cache: cache, now: time.Now}
}

// Toggle flips a lock on or off and invalidates the cache.
func (r *Registry) Toggle(ctx context.Context, by int64, typ Type, target, reason string) (Lock, error) {
	key, err := NormalizeKey(typ, target)
	if err != nil {
		return Lock{}, err
	}
	l, err := r.repo.Toggle(ctx, key, by, reason, r.now().UTC())
	if err != nil {
		return Lock{}, fmt.Errorf("toggle %s lock %q: %w", key.Type, key.Target, err)
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx); err != nil {
			return l, fmt.Errorf("invalidate lock cache: %w", err)
		}
	}
	return l, nil
}

// List returns every lock row.
func (r *Registry) List(ctx context.Context) ([]Lock, error) {
	return r.repo.List(ctx)
}

// Active returns the current active set, through the cache when present.
func (r *Registry) Active(ctx context.Context) (Set, error) {
	if r.cache != nil {
		return r.cache.Active(ctx)
	}
	rows, err := r.repo.ListActive(ctx)
	if err != nil {
		return Set{}, err
	}
	return NewSet(rows), nil
}
