// Package process exposes per-process counters under the "Process" category.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// Info identifies a running process.
type Info struct {
	PID  int32
	Name string
}

// Snapshot is the cumulative and instantaneous state of one process.
type Snapshot struct {
	CPUSeconds   float64
	WorkingSet   uint64
	PrivateBytes uint64
	VirtualBytes uint64
	Threads      uint64
	Handles      uint64
	ReadOps      uint64
	WriteOps     uint64
	ReadBytes    uint64
	WriteBytes   uint64
}

func (s *Snapshot) add(o Snapshot) {
	s.CPUSeconds += o.CPUSeconds
	s.WorkingSet += o.WorkingSet
	s.PrivateBytes += o.PrivateBytes
	s.VirtualBytes += o.VirtualBytes
	s.Threads += o.Threads
	s.Handles += o.Handles
	s.ReadOps += o.ReadOps
	s.WriteOps += o.WriteOps
	s.ReadBytes += o.ReadBytes
	s.WriteBytes += o.WriteBytes
}

// Provider reads process statistics from the OS.
type Provider interface {
	Self(ctx context.Context) (Info, error)
	Processes(ctx context.Context) ([]Info, error)
	Snapshot(ctx context.Context, pid int32) (Snapshot, error)
}

// System is the Provider backed by gopsutil.
type System struct{}

var _ Provider = System{}

func (System) Self(ctx context.Context) (Info, error) {
	pid := int32(os.Getpid())
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open current process: %w", err)
	}
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("failed to read current process name: %w", err)
	}
	return Info{PID: pid, Name: name}, nil
}

func (System) Processes(ctx context.Context) ([]Info, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	out := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Exited since listing, or not ours to inspect.
			continue
		}
		out = append(out, Info{PID: p.Pid, Name: name})
	}
	return out, nil
}

// Snapshot reads everything gopsutil offers for pid. Figures the platform
// does not implement are left at zero; memory and CPU times are required.
func (System) Snapshot(ctx context.Context, pid int32) (Snapshot, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to open process %d: %w", pid, err)
	}

	var s Snapshot
	times, err := p.TimesWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read cpu times of %d: %w", pid, err)
	}
	s.CPUSeconds = times.User + times.System

	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read memory of %d: %w", pid, err)
	}
	s.WorkingSet = mem.RSS
	s.VirtualBytes = mem.VMS
	s.PrivateBytes = privateBytes(ctx, p, mem.RSS)

	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		s.Threads = uint64(n)
	}
	if n, err := p.NumFDsWithContext(ctx); err == nil {
		s.Handles = uint64(n)
	}
	if io, err := p.IOCountersWithContext(ctx); err == nil {
		s.ReadOps = io.ReadCount
		s.WriteOps = io.WriteCount
		s.ReadBytes = io.ReadBytes
		s.WriteBytes = io.WriteBytes
	}
	return s, nil
}

// privateBytes sums the private pages of every mapping, falling back to the
// resident set where memory maps are unavailable.
func privateBytes(ctx context.Context, p *process.Process, rss uint64) uint64 {
	maps, err := p.MemoryMapsWithContext(ctx, true)
	if err != nil || maps == nil || len(*maps) == 0 {
		return rss
	}
	var total uint64
	for _, m := range *maps {
		// MemoryMapsStat sizes are in kB.
		total += (m.PrivateClean + m.PrivateDirty) * 1024
	}
	return total
}

// ErrNoSuchProcess is returned when no running process has the given name.
var ErrNoSuchProcess = errors.New("no process with this name")
