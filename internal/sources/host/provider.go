// Package host exposes machine-wide counters: memory, processor, disk,
// network and system categories.
package host

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	gohost "github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// ErrUnsupported is returned by Provider methods the platform cannot serve.
var ErrUnsupported = errors.New("not supported on this platform")

// KernelStats are cumulative kernel activity counters.
type KernelStats struct {
	Interrupts      uint64
	ContextSwitches uint64
}

// Provider reads raw OS statistics.
type Provider interface {
	CPUTimes(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)
	DiskIOCounters(ctx context.Context) (map[string]disk.IOCountersStat, error)
	Partitions(ctx context.Context) ([]disk.PartitionStat, error)
	DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error)
	NetIOCounters(ctx context.Context) ([]net.IOCountersStat, error)
	Uptime(ctx context.Context) (uint64, error)
	LoadAvg(ctx context.Context) (*load.AvgStat, error)
	Misc(ctx context.Context) (*load.MiscStat, error)
	// Kernel returns ErrUnsupported where interrupt and context-switch totals
	// are unavailable.
	Kernel(ctx context.Context) (KernelStats, error)
	KernelSupported() bool
}

// System is the Provider backed by gopsutil and, on Linux, procfs.
type System struct{}

var _ Provider = System{}

func (System) CPUTimes(ctx context.Context, perCPU bool) ([]cpu.TimesStat, error) {
	return cpu.TimesWithContext(ctx, perCPU)
}

func (System) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (System) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

func (System) DiskIOCounters(ctx context.Context) (map[string]disk.IOCountersStat, error) {
	return disk.IOCountersWithContext(ctx)
}

func (System) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

func (System) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

func (System) NetIOCounters(ctx context.Context) ([]net.IOCountersStat, error) {
	return net.IOCountersWithContext(ctx, true)
}

func (System) Uptime(ctx context.Context) (uint64, error) {
	return gohost.UptimeWithContext(ctx)
}

func (System) LoadAvg(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

func (System) Misc(ctx context.Context) (*load.MiscStat, error) {
	return load.MiscWithContext(ctx)
}

func (System) Kernel(ctx context.Context) (KernelStats, error) {
	return readKernelStats(ctx)
}

func (System) KernelSupported() bool {
	return kernelStatsSupported
}
