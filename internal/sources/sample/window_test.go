package sample

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestWindow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	calls := 0
	w := NewWindow(time.Second, func(context.Context) (int, error) {
		calls++
		return calls * 10, nil
	})
	w.SetClock(clock.Now)

	prev, cur, elapsed, err := w.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, prev)
	assert.Equal(t, 10, cur)
	assert.Zero(t, elapsed)

	// Within the TTL the cached snapshot is reused.
	clock.Advance(500 * time.Millisecond)
	_, cur, _, err = w.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, cur)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Second)
	prev, cur, elapsed, err = w.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, prev)
	assert.Equal(t, 20, cur)
	assert.Equal(t, 1500*time.Millisecond, elapsed)

	clock.Advance(2 * time.Second)
	prev, cur, elapsed, err = w.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, prev)
	assert.Equal(t, 30, cur)
	assert.Equal(t, 2*time.Second, elapsed)
}

func TestWindowFetchError(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	fail := true
	w := NewWindow(time.Second, func(context.Context) (float64, error) {
		if fail {
			return 0, errors.New("unavailable")
		}
		return 42, nil
	})
	w.SetClock(clock.Now)

	_, err := w.Current(ctx)
	assert.Error(t, err)

	fail = false
	v, err := w.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestWindowDefaultTTL(t *testing.T) {
	w := NewWindow(0, func(context.Context) (int, error) { return 1, nil })
	assert.Equal(t, DefaultTTL, w.ttl)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 50.0, Rate(100, 200, 2*time.Second))
	assert.Zero(t, Rate(100, 200, 0))
	assert.Zero(t, Rate(200, 100, time.Second))

	assert.Equal(t, 0.5, Ratio(1, 2))
	assert.Zero(t, Ratio(1, 0))
	assert.Equal(t, 25.0, Percent(1, 4))

	assert.Equal(t, 5.0, Delta(10, 15))
	assert.Zero(t, Delta(15, 10))
}
