package locks

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeRepo struct {
	mu    sync.Mutex
	rows  map[Key]Lock
	reads int
	err   error
}

func newFakeRepo(rows ...Lock) *fakeRepo {
	r := &fakeRepo{rows: make(map[Key]Lock)}
	for _, l := range rows {
		r.rows[Key{Type: l.Type, Target: l.Target}] = l
	}
	return r
}

func (r *fakeRepo) ListActive(ctx context.Context) ([]Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	var out []Lock
	for _, l := range r.rows {
		if l.Locked {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeRepo) List(ctx context.Context) ([]Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Lock
	for _, l := range r.rows {
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeRepo) Toggle(ctx context.Context, key Key, by int64, reason string, at time.Time) (Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[key]
	if !ok {
		l = Lock{Type: key.Type, Target: key.Target}
	}
	l.Locked = !l.Locked
	l.LockedBy = by
	l.LockedAt = at
	l.Reason = reason
	r.rows[key] = l
	return l, nil
}

var errBoom = errors.New("boom")

type panicSource struct{}

func (panicSource) Active(ctx context.Context) (Set, error) { panic("corrupt lock row") }
