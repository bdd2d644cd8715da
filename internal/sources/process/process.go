package process

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/sources/sample"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

// Source samples processes by name. The instance named after the current
// process covers only this process; any other name covers every process
// carrying it; TotalInstance covers all processes.
type Source struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	selfOnce sync.Once
	self     Info
	selfErr  error

	list *sample.Window[[]Info]

	mu        sync.Mutex
	instances map[string]*sample.Window[Snapshot]
}

// New creates a process Source over p, sampling at most once per ttl.
func New(p Provider, ttl time.Duration) *Source {
	return &Source{
		provider:  p,
		ttl:       ttl,
		now:       time.Now,
		list:      sample.NewWindow(ttl, p.Processes),
		instances: make(map[string]*sample.Window[Snapshot]),
	}
}

// NewSystem creates a Source reading processes of the local machine.
func NewSystem(ttl time.Duration) *Source {
	return New(System{}, ttl)
}

// Self returns the current process.
func (s *Source) Self(ctx context.Context) (Info, error) {
	s.selfOnce.Do(func() {
		s.self, s.selfErr = s.provider.Self(context.WithoutCancel(ctx))
	})
	return s.self, s.selfErr
}

// SelfName returns the instance name of the current process, or "" if it
// cannot be resolved.
func (s *Source) SelfName(ctx context.Context) string {
	self, err := s.Self(ctx)
	if err != nil {
		log := logger.WithComponent("process")
		log.Warn().Err(err).Msg("Failed to resolve current process")
		return ""
	}
	return self.Name
}

// Categories returns the Process category.
func (s *Source) Categories() []*counters.Category {
	rate := func(f func(Snapshot) float64, scale float64) counters.ReadFunc {
		return func(ctx context.Context, instance string) (float64, error) {
			prev, cur, elapsed, err := s.window(instance).Get(ctx)
			if err != nil {
				return 0, err
			}
			return sample.Rate(f(prev), f(cur), elapsed) * scale, nil
		}
	}
	gauge := func(f func(Snapshot) uint64) counters.ReadFunc {
		return func(ctx context.Context, instance string) (float64, error) {
			cur, err := s.window(instance).Current(ctx)
			if err != nil {
				return 0, err
			}
			return float64(f(cur)), nil
		}
	}

	return []*counters.Category{{
		Name:        counters.CategoryProcess,
		Help:        "Resource usage of running processes, grouped by name.",
		Instances:   s.names,
		HasInstance: s.hasInstance,
		Counters: map[string]counters.ReadFunc{
			"% Processor Time": rate(func(v Snapshot) float64 { return v.CPUSeconds }, 100),
			"Working Set":      gauge(func(v Snapshot) uint64 { return v.WorkingSet }),
			"Private Bytes":    gauge(func(v Snapshot) uint64 { return v.PrivateBytes }),
			"Virtual Bytes":    gauge(func(v Snapshot) uint64 { return v.VirtualBytes }),
			"Thread Count":     gauge(func(v Snapshot) uint64 { return v.Threads }),
			"Handle Count":     gauge(func(v Snapshot) uint64 { return v.Handles }),
			"IO Read Operations/sec": rate(func(v Snapshot) float64 {
				return float64(v.ReadOps)
			}, 1),
			"IO Write Operations/sec": rate(func(v Snapshot) float64 {
				return float64(v.WriteOps)
			}, 1),
			"IO Data Operations/sec": rate(func(v Snapshot) float64 {
				return float64(v.ReadOps + v.WriteOps)
			}, 1),
			"IO Read Bytes/sec":  rate(func(v Snapshot) float64 { return float64(v.ReadBytes) }, 1),
			"IO Write Bytes/sec": rate(func(v Snapshot) float64 { return float64(v.WriteBytes) }, 1),
		},
	}}
}

func (s *Source) names(ctx context.Context) ([]string, error) {
	procs, err := s.list.Current(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	if name := s.SelfName(ctx); name != "" {
		seen[name] = true
	}
	for _, p := range procs {
		seen[p.Name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Source) hasInstance(ctx context.Context, instance string) bool {
	if self, err := s.Self(ctx); err == nil && self.Name == instance {
		return true
	}
	procs, err := s.list.Current(ctx)
	if err != nil {
		return false
	}
	for _, p := range procs {
		if p.Name == instance {
			return true
		}
	}
	return false
}

// window returns the snapshot window of an instance, creating it on first
// use.
func (s *Source) window(instance string) *sample.Window[Snapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.instances[instance]
	if !ok {
		w = sample.NewWindow(s.ttl, func(ctx context.Context) (Snapshot, error) {
			return s.snapshot(ctx, instance)
		})
		w.SetClock(s.now)
		s.instances[instance] = w
	}
	return w
}

func (s *Source) snapshot(ctx context.Context, instance string) (Snapshot, error) {
	if self, err := s.Self(ctx); err == nil && self.Name == instance {
		return s.provider.Snapshot(ctx, self.PID)
	}

	procs, err := s.list.Current(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	var (
		total   Snapshot
		matched int
		lastErr error
	)
	for _, p := range procs {
		if instance != counters.TotalInstance && p.Name != instance {
			continue
		}
		snap, err := s.provider.Snapshot(ctx, p.PID)
		if err != nil {
			lastErr = err
			continue
		}
		total.add(snap)
		matched++
	}
	if matched == 0 {
		if lastErr != nil {
			return Snapshot{}, lastErr
		}
		return Snapshot{}, fmt.Errorf("%w: %w: %s", counters.ErrInstanceNotFound, ErrNoSuchProcess, instance)
	}
	return total, nil
}

// setClock replaces the clock of every window. Tests only.
func (s *Source) setClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	for _, w := range s.instances {
		w.SetClock(now)
	}
	s.mu.Unlock()
	s.list.SetClock(now)
}
