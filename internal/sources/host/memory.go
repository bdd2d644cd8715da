package host

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/sources/sample"
)

func (s *Source) memoryCategory() *counters.Category {
	gauge := func(f func(v *mem.VirtualMemoryStat) float64) counters.ReadFunc {
		return func(ctx context.Context, _ string) (float64, error) {
			v, err := s.vmem.Current(ctx)
			if err != nil {
				return 0, err
			}
			return f(v), nil
		}
	}
	pageRate := func(f func(v *mem.SwapMemoryStat) uint64) counters.ReadFunc {
		return func(ctx context.Context, _ string) (float64, error) {
			prev, cur, elapsed, err := s.swap.Get(ctx)
			if err != nil {
				return 0, err
			}
			return sample.Rate(pages(f(prev)), pages(f(cur)), elapsed), nil
		}
	}

	return &counters.Category{
		Name: counters.CategoryMemory,
		Help: "Physical and virtual memory usage and paging activity.",
		Counters: map[string]counters.ReadFunc{
			"Available Bytes": gauge(func(v *mem.VirtualMemoryStat) float64 { return float64(v.Available) }),
			"Committed Bytes": gauge(committedBytes),
			"Cache Bytes":     gauge(func(v *mem.VirtualMemoryStat) float64 { return float64(v.Cached) }),
			"% Committed Bytes In Use": gauge(func(v *mem.VirtualMemoryStat) float64 {
				if v.CommitLimit > 0 && v.CommittedAS > 0 {
					return sample.Percent(float64(v.CommittedAS), float64(v.CommitLimit))
				}
				return v.UsedPercent
			}),
			"Pool Paged Bytes":    gauge(func(v *mem.VirtualMemoryStat) float64 { return float64(v.Sreclaimable) }),
			"Pool Nonpaged Bytes": gauge(func(v *mem.VirtualMemoryStat) float64 { return float64(v.Sunreclaim) }),
			"Page Tables Bytes":   gauge(func(v *mem.VirtualMemoryStat) float64 { return float64(v.PageTables) }),
			"Swap Used Bytes": func(ctx context.Context, _ string) (float64, error) {
				sw, err := s.swap.Current(ctx)
				if err != nil {
					return 0, err
				}
				return float64(sw.Used), nil
			},
			"Pages Input/sec":  pageRate(func(v *mem.SwapMemoryStat) uint64 { return v.PgIn }),
			"Pages Output/sec": pageRate(func(v *mem.SwapMemoryStat) uint64 { return v.PgOut }),
			"Pages/sec":        pageRate(func(v *mem.SwapMemoryStat) uint64 { return v.PgIn + v.PgOut }),
			"Page Faults/sec":  pageRate(func(v *mem.SwapMemoryStat) uint64 { return v.PgFault }),
		},
	}
}

// pages converts a gopsutil paging counter back to a count of pages or
// faults.
func pages(v uint64) float64 {
	return float64(v / pagingScale)
}

// committedBytes prefers the kernel's committed address space and falls back
// to used memory where the platform does not report it.
func committedBytes(v *mem.VirtualMemoryStat) float64 {
	if v.CommittedAS > 0 {
		return float64(v.CommittedAS)
	}
	return float64(v.Used)
}
