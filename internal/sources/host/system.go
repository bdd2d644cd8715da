package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/load"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/sources/sample"
)

func (s *Source) systemCategory() *counters.Category {
	misc := func(f func(m *load.MiscStat) int) counters.ReadFunc {
		return func(ctx context.Context, _ string) (float64, error) {
			m, err := s.misc.Current(ctx)
			if err != nil {
				return 0, err
			}
			return float64(f(m)), nil
		}
	}
	loadAvg := func(f func(a *load.AvgStat) float64) counters.ReadFunc {
		return func(ctx context.Context, _ string) (float64, error) {
			a, err := s.provider.LoadAvg(ctx)
			if err != nil {
				return 0, err
			}
			return f(a), nil
		}
	}

	c := &counters.Category{
		Name: counters.CategorySystem,
		Help: "Machine-wide scheduler and uptime figures.",
		Counters: map[string]counters.ReadFunc{
			"System Up Time": func(ctx context.Context, _ string) (float64, error) {
				up, err := s.provider.Uptime(ctx)
				if err != nil {
					return 0, err
				}
				return float64(up), nil
			},
			"Processes":              misc(func(m *load.MiscStat) int { return m.ProcsTotal }),
			"Processor Queue Length": misc(func(m *load.MiscStat) int { return m.ProcsRunning }),
			"Blocked Processes":      misc(func(m *load.MiscStat) int { return m.ProcsBlocked }),
			"Load Average 1m":        loadAvg(func(a *load.AvgStat) float64 { return a.Load1 }),
			"Load Average 5m":        loadAvg(func(a *load.AvgStat) float64 { return a.Load5 }),
			"Load Average 15m":       loadAvg(func(a *load.AvgStat) float64 { return a.Load15 }),
		},
	}
	if s.provider.KernelSupported() {
		c.Counters["Context Switches/sec"] = func(ctx context.Context, _ string) (float64, error) {
			prev, cur, elapsed, err := s.kernel.Get(ctx)
			if err != nil {
				return 0, err
			}
			return sample.Rate(float64(prev.ContextSwitches), float64(cur.ContextSwitches), elapsed), nil
		}
	}
	return c
}

var errEmpty = errors.New("no data returned")

// errOrEmpty wraps err, or reports an empty result when the call succeeded
// without returning anything.
func errOrEmpty(err error, what string) error {
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", what, err)
	}
	return fmt.Errorf("failed to read %s: %w", what, errEmpty)
}
