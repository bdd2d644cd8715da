package host

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/sources/sample"
)

// diskIO reduces a pair of IO snapshots to a counter value.
type diskIO func(prev, cur disk.IOCountersStat, elapsed time.Duration) float64

var diskIOCounters = map[string]diskIO{
	"Avg. Disk sec/Read": func(prev, cur disk.IOCountersStat, _ time.Duration) float64 {
		return sample.Ratio(sample.Delta(float64(prev.ReadTime), float64(cur.ReadTime)),
			sample.Delta(float64(prev.ReadCount), float64(cur.ReadCount))) / 1000
	},
	"Avg. Disk sec/Write": func(prev, cur disk.IOCountersStat, _ time.Duration) float64 {
		return sample.Ratio(sample.Delta(float64(prev.WriteTime), float64(cur.WriteTime)),
			sample.Delta(float64(prev.WriteCount), float64(cur.WriteCount))) / 1000
	},
	"Disk Transfers/sec": func(prev, cur disk.IOCountersStat, elapsed time.Duration) float64 {
		return sample.Rate(float64(prev.ReadCount+prev.WriteCount), float64(cur.ReadCount+cur.WriteCount), elapsed)
	},
	"Disk Reads/sec": func(prev, cur disk.IOCountersStat, elapsed time.Duration) float64 {
		return sample.Rate(float64(prev.ReadCount), float64(cur.ReadCount), elapsed)
	},
	"Disk Writes/sec": func(prev, cur disk.IOCountersStat, elapsed time.Duration) float64 {
		return sample.Rate(float64(prev.WriteCount), float64(cur.WriteCount), elapsed)
	},
	"Disk Read Bytes/sec": func(prev, cur disk.IOCountersStat, elapsed time.Duration) float64 {
		return sample.Rate(float64(prev.ReadBytes), float64(cur.ReadBytes), elapsed)
	},
	"Disk Write Bytes/sec": func(prev, cur disk.IOCountersStat, elapsed time.Duration) float64 {
		return sample.Rate(float64(prev.WriteBytes), float64(cur.WriteBytes), elapsed)
	},
}

// devicesFunc selects the devices an instance of a disk category covers.
type devicesFunc func(ctx context.Context, all map[string]disk.IOCountersStat, instance string) ([]string, error)

func (s *Source) physicalDiskCategory() *counters.Category {
	c := &counters.Category{
		Name:      counters.CategoryPhysicalDisk,
		Help:      "IO activity of block devices, excluding partitions.",
		Instances: s.physicalDisks,
		Counters:  map[string]counters.ReadFunc{},
	}
	for name, f := range diskIOCounters {
		c.Counters[name] = s.diskCounter(counters.CategoryPhysicalDisk, physicalDevices, f)
	}
	return c
}

func (s *Source) logicalDiskCategory() *counters.Category {
	c := &counters.Category{
		Name:      counters.CategoryLogicalDisk,
		Help:      "IO activity and free space of mounted file systems.",
		Instances: s.mountPoints,
		Counters: map[string]counters.ReadFunc{
			"% Free Space": s.freeSpace(func(free, total uint64) float64 {
				return sample.Percent(float64(free), float64(total))
			}),
			"Free Megabytes": s.freeSpace(func(free, _ uint64) float64 {
				return float64(free) / (1024 * 1024)
			}),
		},
	}
	for name, f := range diskIOCounters {
		c.Counters[name] = s.diskCounter(counters.CategoryLogicalDisk, s.logicalDevices, f)
	}
	return c
}

func (s *Source) diskCounter(category string, devices devicesFunc, f diskIO) counters.ReadFunc {
	return func(ctx context.Context, instance string) (float64, error) {
		prevAll, curAll, elapsed, err := s.disks.Get(ctx)
		if err != nil {
			return 0, err
		}
		names, err := devices(ctx, curAll, instance)
		if err != nil {
			return 0, err
		}
		if len(names) == 0 {
			return 0, fmt.Errorf("%w: %s(%s)", counters.ErrInstanceNotFound, category, instance)
		}
		var prev, cur disk.IOCountersStat
		for _, name := range names {
			c, ok := curAll[name]
			if !ok {
				continue
			}
			p, ok := prevAll[name]
			if !ok {
				p = c
			}
			addIO(&cur, c)
			addIO(&prev, p)
		}
		return f(prev, cur, elapsed), nil
	}
}

func addIO(dst *disk.IOCountersStat, src disk.IOCountersStat) {
	dst.ReadCount += src.ReadCount
	dst.WriteCount += src.WriteCount
	dst.ReadBytes += src.ReadBytes
	dst.WriteBytes += src.WriteBytes
	dst.ReadTime += src.ReadTime
	dst.WriteTime += src.WriteTime
}

func (s *Source) physicalDisks(ctx context.Context) ([]string, error) {
	all, err := s.disks.Current(ctx)
	if err != nil {
		return nil, err
	}
	return physicalDevices(ctx, all, counters.TotalInstance)
}

func physicalDevices(_ context.Context, all map[string]disk.IOCountersStat, instance string) ([]string, error) {
	if instance != counters.TotalInstance {
		if _, ok := all[instance]; !ok || isPartition(instance, all) {
			return nil, nil
		}
		return []string{instance}, nil
	}
	names := make([]string, 0, len(all))
	for name := range all {
		if !isPartition(name, all) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// isPartition reports whether name is a partition of another listed device,
// e.g. sda1 of sda or nvme0n1p2 of nvme0n1. A parent whose name ends in a
// digit takes a "p" before the partition number, so dm-10 is not a partition
// of dm-1 nor loop12 of loop1.
func isPartition(name string, all map[string]disk.IOCountersStat) bool {
	for other := range all {
		if other == name || !strings.HasPrefix(name, other) {
			continue
		}
		rest := strings.TrimPrefix(name, other)
		if last := other[len(other)-1]; last >= '0' && last <= '9' {
			if !strings.HasPrefix(rest, "p") {
				continue
			}
			rest = rest[1:]
		}
		if rest != "" && strings.Trim(rest, "0123456789") == "" {
			return true
		}
	}
	return false
}

func (s *Source) mountPoints(ctx context.Context) ([]string, error) {
	parts, err := s.partitions.Current(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, p.Mountpoint)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Source) logicalDevices(ctx context.Context, all map[string]disk.IOCountersStat, instance string) ([]string, error) {
	parts, err := s.partitions.Current(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, p := range parts {
		if instance != counters.TotalInstance && p.Mountpoint != instance {
			continue
		}
		dev := filepath.Base(s.resolveDevice(p.Device))
		if _, ok := all[dev]; !ok || seen[dev] {
			continue
		}
		seen[dev] = true
		names = append(names, dev)
	}
	if len(names) == 0 && instance != counters.TotalInstance {
		for _, p := range parts {
			if p.Mountpoint == instance {
				// Mounted but without IO statistics (e.g. a network file system).
				return nil, fmt.Errorf("no IO statistics for %s", p.Device)
			}
		}
	}
	return names, nil
}

func (s *Source) freeSpace(f func(free, total uint64) float64) counters.ReadFunc {
	return func(ctx context.Context, instance string) (float64, error) {
		parts, err := s.partitions.Current(ctx)
		if err != nil {
			return 0, err
		}
		var free, total uint64
		found := false
		for _, p := range parts {
			if instance != counters.TotalInstance && p.Mountpoint != instance {
				continue
			}
			u, err := s.provider.DiskUsage(ctx, p.Mountpoint)
			if err != nil {
				if instance != counters.TotalInstance {
					return 0, fmt.Errorf("failed to read usage of %s: %w", p.Mountpoint, err)
				}
				continue
			}
			free += u.Free
			total += u.Total
			found = true
		}
		if !found {
			return 0, fmt.Errorf("%w: %s(%s)", counters.ErrInstanceNotFound, counters.CategoryLogicalDisk, instance)
		}
		return f(free, total), nil
	}
}

// resolveDevice follows device symlinks such as /dev/mapper/vg-root to the
// kernel name (/dev/dm-0) that disk statistics are keyed by.
func resolveDevice(device string) string {
	if resolved, err := filepath.EvalSymlinks(device); err == nil {
		return resolved
	}
	return device
}
