package runtime

import (
	"context"
	"runtime/metrics"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/perfcounters/internal/counters"
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

func describe(kind metrics.ValueKind, names ...string) []metrics.Description {
	out := make([]metrics.Description, 0, len(names))
	for _, n := range names {
		out = append(out, metrics.Description{Name: n, Kind: kind})
	}
	return out
}

func TestRuntimeCountersFromSamples(t *testing.T) {
	descs := describe(metrics.KindUint64, heapObjectsBytes, heapAllocs, gcCycles, goroutines)
	descs = append(descs, describe(metrics.KindFloat64, gcCPU, totalCPU)...)

	step := 1.0
	var requested []string
	read := func(names []string) values {
		requested = names
		return values{
			heapObjectsBytes: 64 << 20,
			heapAllocs:       step * (10 << 20),
			gcCycles:         step * 4,
			goroutines:       12,
			gcCPU:            step * 0.1,
			totalCPU:         step * 2,
		}
	}

	clock := &fakeClock{now: time.Unix(1000, 0)}
	src := newSource(descs, read, time.Second)
	src.setClock(clock.Now)
	set := counters.NewSet(src.Categories()...)
	ctx := context.Background()

	v, err := set.Read(ctx, counters.CategoryGoMemory, "Allocated Bytes/sec", "")
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.ElementsMatch(t, []string{heapObjectsBytes, heapAllocs, gcCycles, goroutines, gcCPU, totalCPU}, requested)

	clock.Advance(2 * time.Second)
	step = 2

	cases := []struct {
		category, counter string
		want              float64
	}{
		{counters.CategoryGoMemory, "# Bytes in all Heaps", 64 << 20},
		{counters.CategoryGoMemory, "Allocated Bytes/sec", 5 << 20},
		{counters.CategoryGoMemory, "GC Cycles", 8},
		{counters.CategoryGoMemory, "GC Cycles/sec", 2},
		{counters.CategoryGoMemory, "% Time in GC", 5},
		{counters.CategoryGoScheduler, "Goroutines", 12},
	}
	for _, tc := range cases {
		t.Run(tc.counter, func(t *testing.T) {
			v, err := set.Read(ctx, tc.category, tc.counter, "")
			require.NoError(t, err)
			assert.InDelta(t, tc.want, v, 1e-9)
		})
	}
}

func TestUnpublishedMetricsAreMissing(t *testing.T) {
	descs := describe(metrics.KindUint64, goroutines)
	// Histograms cannot back a gauge.
	descs = append(descs, describe(metrics.KindFloat64Histogram, heapGoal)...)

	src := newSource(descs, func([]string) values { return values{goroutines: 3} }, time.Second)
	set := counters.NewSet(src.Categories()...)

	assert.True(t, set.CounterExists(counters.CategoryGoScheduler, "Goroutines"))
	assert.True(t, set.CounterExists(counters.CategoryGoScheduler, "OS Threads"))
	assert.True(t, set.CounterExists(counters.CategoryGoScheduler, "Logical CPUs"))
	assert.False(t, set.CounterExists(counters.CategoryGoScheduler, "Mutex Wait Seconds"))
	assert.False(t, set.CategoryExists(counters.CategoryGoMemory))
	assert.False(t, src.Supported(heapGoal))

	def := counters.Definition{Name: "Heap Goal", Category: counters.CategoryGoMemory, Counter: "Heap Goal Bytes"}
	assert.False(t, counters.Exists(context.Background(), set, def))
}

func TestLiveRuntime(t *testing.T) {
	set := counters.NewSet(New(time.Second).Categories()...)
	ctx := context.Background()

	for _, d := range counters.RuntimeCatalog() {
		assert.True(t, counters.Exists(ctx, set, d), d.Name)
	}

	v, err := set.Read(ctx, counters.CategoryGoScheduler, "Goroutines", "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 1.0)

	v, err = set.Read(ctx, counters.CategoryGoScheduler, "OS Threads", "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 1.0)

	v, err = set.Read(ctx, counters.CategoryGoMemory, "Total Memory Bytes", "")
	require.NoError(t, err)
	assert.Greater(t, v, 0.0)
}
