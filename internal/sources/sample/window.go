// Package sample keeps consecutive snapshots of cumulative OS statistics so
// that rates and ratios can be computed between them.
package sample

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a snapshot is reused before a new one is taken.
const DefaultTTL = time.Second

// Window caches the two most recent results of a fetch function. A new
// snapshot is taken at most once per TTL, so many counters backed by the same
// OS call share one read.
type Window[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	fetch func(ctx context.Context) (T, error)
	now   func() time.Time

	prev, cur     T
	prevAt, curAt time.Time
	primed        bool
	hasPrev       bool
}

// NewWindow creates a Window around fetch. A non-positive ttl uses DefaultTTL.
func NewWindow[T any](ttl time.Duration, fetch func(ctx context.Context) (T, error)) *Window[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Window[T]{ttl: ttl, fetch: fetch, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (w *Window[T]) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// Get returns the previous and current snapshots and the time between them.
// elapsed is zero until two snapshots have been taken.
func (w *Window[T]) Get(ctx context.Context) (prev, cur T, elapsed time.Duration, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if !w.primed || now.Sub(w.curAt) >= w.ttl {
		v, err := w.fetch(ctx)
		if err != nil {
			var zero T
			return zero, zero, 0, err
		}
		if w.primed {
			w.prev, w.prevAt, w.hasPrev = w.cur, w.curAt, true
		}
		w.cur, w.curAt, w.primed = v, now, true
	}

	if !w.hasPrev {
		return w.cur, w.cur, 0, nil
	}
	return w.prev, w.cur, w.curAt.Sub(w.prevAt), nil
}

// Current returns only the latest snapshot.
func (w *Window[T]) Current(ctx context.Context) (T, error) {
	_, cur, _, err := w.Get(ctx)
	return cur, err
}
