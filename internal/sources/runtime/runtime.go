// Package runtime exposes Go runtime counters read from runtime/metrics under
// the "Go Memory" and "Go Scheduler" categories. A counter is only offered
// when every runtime metric it needs is published by the running Go version.
package runtime

import (
	"context"
	"math"
	goruntime "runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/sources/sample"
)

const (
	heapObjectsBytes = "/memory/classes/heap/objects:bytes"
	heapGoal         = "/gc/heap/goal:bytes"
	heapFree         = "/memory/classes/heap/free:bytes"
	heapReleased     = "/memory/classes/heap/released:bytes"
	heapStacks       = "/memory/classes/heap/stacks:bytes"
	totalMemory      = "/memory/classes/total:bytes"
	heapObjects      = "/gc/heap/objects:objects"
	heapAllocs       = "/gc/heap/allocs:bytes"
	gcCPU            = "/cpu/classes/gc/total:cpu-seconds"
	totalCPU         = "/cpu/classes/total:cpu-seconds"
	gcCycles         = "/gc/cycles/total:gc-cycles"
	goroutines       = "/sched/goroutines:goroutines"
	gomaxprocs       = "/sched/gomaxprocs:threads"
	mutexWait        = "/sync/mutex/wait/total:seconds"
)

// values maps runtime metric names to their latest value.
type values map[string]float64

// reduce turns two consecutive samples into a counter value.
type reduce func(prev, cur values, elapsed time.Duration) float64

type counterDef struct {
	category string
	name     string
	needs    []string
	reduce   reduce
}

func gauge(name string) counterDef {
	return counterDef{needs: []string{name}, reduce: func(_, cur values, _ time.Duration) float64 {
		return cur[name]
	}}
}

func rate(name string) counterDef {
	return counterDef{needs: []string{name}, reduce: func(prev, cur values, elapsed time.Duration) float64 {
		return sample.Rate(prev[name], cur[name], elapsed)
	}}
}

// percentOf reports the share of den's growth that num accounts for.
func percentOf(num, den string) counterDef {
	return counterDef{needs: []string{num, den}, reduce: func(prev, cur values, _ time.Duration) float64 {
		return sample.Percent(sample.Delta(prev[num], cur[num]), sample.Delta(prev[den], cur[den]))
	}}
}

func local(f func() float64) counterDef {
	return counterDef{reduce: func(values, values, time.Duration) float64 { return f() }}
}

func (d counterDef) in(category, name string) counterDef {
	d.category, d.name = category, name
	return d
}

func definitions() []counterDef {
	return []counterDef{
		gauge(heapObjectsBytes).in(counters.CategoryGoMemory, "# Bytes in all Heaps"),
		gauge(heapGoal).in(counters.CategoryGoMemory, "Heap Goal Bytes"),
		gauge(heapFree).in(counters.CategoryGoMemory, "Heap Free Bytes"),
		gauge(heapReleased).in(counters.CategoryGoMemory, "Heap Released Bytes"),
		gauge(heapStacks).in(counters.CategoryGoMemory, "Stack Bytes"),
		gauge(totalMemory).in(counters.CategoryGoMemory, "Total Memory Bytes"),
		gauge(heapObjects).in(counters.CategoryGoMemory, "Heap Objects"),
		rate(heapAllocs).in(counters.CategoryGoMemory, "Allocated Bytes/sec"),
		percentOf(gcCPU, totalCPU).in(counters.CategoryGoMemory, "% Time in GC"),
		gauge(gcCycles).in(counters.CategoryGoMemory, "GC Cycles"),
		rate(gcCycles).in(counters.CategoryGoMemory, "GC Cycles/sec"),

		gauge(goroutines).in(counters.CategoryGoScheduler, "Goroutines"),
		local(osThreads).in(counters.CategoryGoScheduler, "OS Threads"),
		gauge(gomaxprocs).in(counters.CategoryGoScheduler, "GOMAXPROCS"),
		local(func() float64 { return float64(goruntime.NumCPU()) }).in(counters.CategoryGoScheduler, "Logical CPUs"),
		gauge(mutexWait).in(counters.CategoryGoScheduler, "Mutex Wait Seconds"),
		rate(mutexWait).in(counters.CategoryGoScheduler, "Mutex Wait/sec"),
	}
}

// osThreads counts threads created by the runtime. runtime/metrics does not
// publish it.
func osThreads() float64 {
	return float64(pprof.Lookup("threadcreate").Count())
}

// Source reads runtime/metrics.
type Source struct {
	supported map[string]bool
	names     []string
	read      func(names []string) values
	window    *sample.Window[values]
}

// New creates a Source over the running Go runtime.
func New(ttl time.Duration) *Source {
	return newSource(metrics.All(), readMetrics, ttl)
}

func newSource(descs []metrics.Description, read func(names []string) values, ttl time.Duration) *Source {
	s := &Source{supported: make(map[string]bool, len(descs)), read: read}
	for _, d := range descs {
		if d.Kind == metrics.KindUint64 || d.Kind == metrics.KindFloat64 {
			s.supported[d.Name] = true
		}
	}

	wanted := map[string]bool{}
	for _, d := range definitions() {
		for _, n := range d.needs {
			if s.supported[n] {
				wanted[n] = true
			}
		}
	}
	for n := range wanted {
		s.names = append(s.names, n)
	}
	sort.Strings(s.names)

	s.window = sample.NewWindow(ttl, s.sample)
	return s
}

func (s *Source) sample(context.Context) (values, error) {
	return s.read(s.names), nil
}

func readMetrics(names []string) values {
	samples := make([]metrics.Sample, len(names))
	for i, n := range names {
		samples[i].Name = n
	}
	metrics.Read(samples)

	out := make(values, len(samples))
	for _, smp := range samples {
		switch smp.Value.Kind() {
		case metrics.KindUint64:
			out[smp.Name] = float64(smp.Value.Uint64())
		case metrics.KindFloat64:
			out[smp.Name] = smp.Value.Float64()
		default:
			out[smp.Name] = math.NaN()
		}
	}
	return out
}

// Supported reports whether the runtime publishes the named metric.
func (s *Source) Supported(name string) bool {
	return s.supported[name]
}

// Categories returns the runtime categories. Counters whose metrics the
// runtime does not publish are left out.
func (s *Source) Categories() []*counters.Category {
	byName := map[string]*counters.Category{}
	var order []*counters.Category
	for _, d := range definitions() {
		if !s.available(d) {
			continue
		}
		c, ok := byName[d.category]
		if !ok {
			c = &counters.Category{Name: d.category, Counters: map[string]counters.ReadFunc{}}
			switch d.category {
			case counters.CategoryGoMemory:
				c.Help = "Go heap, stack and garbage collector statistics."
			case counters.CategoryGoScheduler:
				c.Help = "Goroutines, threads and lock contention of the Go scheduler."
			}
			byName[d.category] = c
			order = append(order, c)
		}
		c.Counters[d.name] = s.counter(d.reduce)
	}
	return order
}

func (s *Source) available(d counterDef) bool {
	for _, n := range d.needs {
		if !s.supported[n] {
			return false
		}
	}
	return true
}

func (s *Source) counter(r reduce) counters.ReadFunc {
	return func(ctx context.Context, _ string) (float64, error) {
		prev, cur, elapsed, err := s.window.Get(ctx)
		if err != nil {
			return 0, err
		}
		return r(prev, cur, elapsed), nil
	}
}

// setClock replaces the sampling clock. Tests only.
func (s *Source) setClock(now func() time.Time) {
	s.window.SetClock(now)
}
