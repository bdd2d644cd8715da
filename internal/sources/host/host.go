package host

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/sources/sample"
)

// Source samples host statistics. Each OS call is cached for the sample TTL
// and shared by every counter built on it.
type Source struct {
	provider      Provider
	resolveDevice func(device string) string

	cpuTotal   *sample.Window[cpu.TimesStat]
	cpuPer     *sample.Window[map[string]cpu.TimesStat]
	vmem       *sample.Window[*mem.VirtualMemoryStat]
	swap       *sample.Window[*mem.SwapMemoryStat]
	disks      *sample.Window[map[string]disk.IOCountersStat]
	partitions *sample.Window[[]disk.PartitionStat]
	nics       *sample.Window[map[string]net.IOCountersStat]
	misc       *sample.Window[*load.MiscStat]
	kernel     *sample.Window[KernelStats]
}

// New creates a host Source over p, sampling at most once per ttl.
func New(p Provider, ttl time.Duration) *Source {
	s := &Source{provider: p, resolveDevice: resolveDevice}

	s.cpuTotal = sample.NewWindow(ttl, func(ctx context.Context) (cpu.TimesStat, error) {
		times, err := p.CPUTimes(ctx, false)
		if err != nil || len(times) == 0 {
			return cpu.TimesStat{}, errOrEmpty(err, "cpu times")
		}
		return times[0], nil
	})
	s.cpuPer = sample.NewWindow(ttl, func(ctx context.Context) (map[string]cpu.TimesStat, error) {
		times, err := p.CPUTimes(ctx, true)
		if err != nil {
			return nil, err
		}
		out := make(map[string]cpu.TimesStat, len(times))
		for _, t := range times {
			out[cpuInstance(t.CPU)] = t
		}
		return out, nil
	})
	s.vmem = sample.NewWindow(ttl, p.VirtualMemory)
	s.swap = sample.NewWindow(ttl, p.SwapMemory)
	s.disks = sample.NewWindow(ttl, p.DiskIOCounters)
	s.partitions = sample.NewWindow(ttl, p.Partitions)
	s.nics = sample.NewWindow(ttl, func(ctx context.Context) (map[string]net.IOCountersStat, error) {
		stats, err := p.NetIOCounters(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]net.IOCountersStat, len(stats))
		for _, st := range stats {
			out[st.Name] = st
		}
		return out, nil
	})
	s.misc = sample.NewWindow(ttl, p.Misc)
	s.kernel = sample.NewWindow(ttl, p.Kernel)
	return s
}

// NewSystem creates a Source reading the local machine.
func NewSystem(ttl time.Duration) *Source {
	return New(System{}, ttl)
}

// Categories returns every host category.
func (s *Source) Categories() []*counters.Category {
	return []*counters.Category{
		s.memoryCategory(),
		s.processorCategory(),
		s.logicalDiskCategory(),
		s.physicalDiskCategory(),
		s.networkCategory(),
		s.systemCategory(),
	}
}

// setClock replaces the clock of every window. Tests only.
func (s *Source) setClock(now func() time.Time) {
	s.cpuTotal.SetClock(now)
	s.cpuPer.SetClock(now)
	s.vmem.SetClock(now)
	s.swap.SetClock(now)
	s.disks.SetClock(now)
	s.partitions.SetClock(now)
	s.nics.SetClock(now)
	s.misc.SetClock(now)
	s.kernel.SetClock(now)
}
