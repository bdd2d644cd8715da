package host

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/sources/sample"
)

func (s *Source) networkCategory() *counters.Category {
	rate := func(f func(st net.IOCountersStat) uint64) counters.ReadFunc {
		return func(ctx context.Context, instance string) (float64, error) {
			prev, cur, elapsed, err := s.nicCounters(ctx, instance)
			if err != nil {
				return 0, err
			}
			return sample.Rate(float64(f(prev)), float64(f(cur)), elapsed), nil
		}
	}

	return &counters.Category{
		Name:      counters.CategoryNetwork,
		Help:      "Traffic of network interfaces. The total excludes loopback.",
		Instances: s.nicNames,
		Counters: map[string]counters.ReadFunc{
			"Bytes Received/sec":   rate(func(st net.IOCountersStat) uint64 { return st.BytesRecv }),
			"Bytes Sent/sec":       rate(func(st net.IOCountersStat) uint64 { return st.BytesSent }),
			"Bytes Total/sec":      rate(func(st net.IOCountersStat) uint64 { return st.BytesRecv + st.BytesSent }),
			"Packets Received/sec": rate(func(st net.IOCountersStat) uint64 { return st.PacketsRecv }),
			"Packets Sent/sec":     rate(func(st net.IOCountersStat) uint64 { return st.PacketsSent }),
		},
	}
}

func (s *Source) nicNames(ctx context.Context) ([]string, error) {
	nics, err := s.nics.Current(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(nics))
	for name := range nics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// nicCounters returns the counters of one interface, or the sum of all
// non-loopback interfaces for TotalInstance.
func (s *Source) nicCounters(ctx context.Context, instance string) (prev, cur net.IOCountersStat, elapsed time.Duration, err error) {
	prevAll, curAll, elapsed, err := s.nics.Get(ctx)
	if err != nil {
		return prev, cur, 0, err
	}
	if instance != counters.TotalInstance {
		c, ok := curAll[instance]
		if !ok {
			return prev, cur, 0, fmt.Errorf("%w: %s(%s)", counters.ErrInstanceNotFound, counters.CategoryNetwork, instance)
		}
		p, ok := prevAll[instance]
		if !ok {
			return c, c, 0, nil
		}
		return p, c, elapsed, nil
	}
	for name, c := range curAll {
		if isLoopback(name) {
			continue
		}
		p, ok := prevAll[name]
		if !ok {
			p = c
		}
		addNIC(&cur, c)
		addNIC(&prev, p)
	}
	return prev, cur, elapsed, nil
}

func addNIC(dst *net.IOCountersStat, src net.IOCountersStat) {
	dst.BytesRecv += src.BytesRecv
	dst.BytesSent += src.BytesSent
	dst.PacketsRecv += src.PacketsRecv
	dst.PacketsSent += src.PacketsSent
}

// isLoopback matches the loopback interface names used by Linux, the BSDs
// and Windows.
func isLoopback(name string) bool {
	n := strings.ToLower(name)
	return n == "lo" || strings.HasPrefix(n, "lo0") || strings.Contains(n, "loopback")
}
