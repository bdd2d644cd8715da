//go:build !linux

package host

import "context"

const kernelStatsSupported = false

const pagingScale = 1

func readKernelStats(context.Context) (KernelStats, error) {
	return KernelStats{}, ErrUnsupported
}
