//go:build linux

package host

import (
	"context"
	"fmt"

	"github.com/prometheus/procfs"
)

const kernelStatsSupported = true

// gopsutil reports the /proc/vmstat paging counters multiplied by 4 KiB.
const pagingScale = 4 * 1024

func readKernelStats(_ context.Context) (KernelStats, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return KernelStats{}, fmt.Errorf("failed to open procfs: %w", err)
	}
	st, err := fs.Stat()
	if err != nil {
		return KernelStats{}, fmt.Errorf("failed to read /proc/stat: %w", err)
	}
	return KernelStats{
		Interrupts:      st.IRQTotal,
		ContextSwitches: st.ContextSwitches,
	}, nil
}
