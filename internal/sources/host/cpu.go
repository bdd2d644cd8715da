package host

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/sources/sample"
)

func cpuInstance(name string) string {
	return strings.TrimPrefix(name, "cpu")
}

func cpuTotal(t cpu.TimesStat) float64 {
	return t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
}

// cpuShare selects the part of the CPU time a counter reports.
type cpuShare func(t cpu.TimesStat) float64

func (s *Source) processorCategory() *counters.Category {
	shares := map[string]cpuShare{
		"% Processor Time": func(t cpu.TimesStat) float64 {
			return cpuTotal(t) - t.Idle - t.Iowait
		},
		"% User Time":       func(t cpu.TimesStat) float64 { return t.User + t.Nice },
		"% Privileged Time": func(t cpu.TimesStat) float64 { return t.System },
		"% Interrupt Time":  func(t cpu.TimesStat) float64 { return t.Irq },
		"% DPC Time":        func(t cpu.TimesStat) float64 { return t.Softirq },
		"% Idle Time":       func(t cpu.TimesStat) float64 { return t.Idle },
		"% IO Wait Time":    func(t cpu.TimesStat) float64 { return t.Iowait },
	}

	c := &counters.Category{
		Name:      counters.CategoryProcessor,
		Help:      "Processor time split by mode, per logical CPU.",
		Instances: s.cpuInstances,
		Counters:  make(map[string]counters.ReadFunc, len(shares)+1),
	}
	for name, share := range shares {
		c.Counters[name] = s.cpuPercent(share)
	}
	if s.provider.KernelSupported() {
		c.Counters["Interrupts/sec"] = s.interruptsPerSec
	}
	return c
}

func (s *Source) cpuInstances(ctx context.Context) ([]string, error) {
	per, err := s.cpuPer.Current(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(per))
	for name := range per {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, errA := strconv.Atoi(names[i])
		b, errB := strconv.Atoi(names[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return names[i] < names[j]
	})
	return names, nil
}

// cpuPercent reports share as a percentage of all CPU time spent between the
// last two samples. Until a second sample exists the figure covers the time
// since boot.
func (s *Source) cpuPercent(share cpuShare) counters.ReadFunc {
	return func(ctx context.Context, instance string) (float64, error) {
		prev, cur, elapsed, err := s.cpuTimes(ctx, instance)
		if err != nil {
			return 0, err
		}
		if elapsed == 0 {
			prev = cpu.TimesStat{}
		}
		return sample.Percent(share(cur)-share(prev), cpuTotal(cur)-cpuTotal(prev)), nil
	}
}

func (s *Source) cpuTimes(ctx context.Context, instance string) (prev, cur cpu.TimesStat, elapsed time.Duration, err error) {
	if instance == counters.TotalInstance {
		return s.cpuTotal.Get(ctx)
	}
	prevAll, curAll, elapsed, err := s.cpuPer.Get(ctx)
	if err != nil {
		return prev, cur, 0, err
	}
	cur, ok := curAll[instance]
	if !ok {
		return prev, cur, 0, fmt.Errorf("%w: %s(%s)", counters.ErrInstanceNotFound, counters.CategoryProcessor, instance)
	}
	prev, ok = prevAll[instance]
	if !ok {
		elapsed = 0
	}
	return prev, cur, elapsed, nil
}

func (s *Source) interruptsPerSec(ctx context.Context, instance string) (float64, error) {
	if instance != counters.TotalInstance {
		return 0, fmt.Errorf("%w: interrupts are only counted for %s", counters.ErrInstanceNotFound, counters.TotalInstance)
	}
	prev, cur, elapsed, err := s.kernel.Get(ctx)
	if err != nil {
		return 0, err
	}
	return sample.Rate(float64(prev.Interrupts), float64(cur.Interrupts), elapsed), nil
}
