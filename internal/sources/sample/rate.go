package sample

import "time"

// Rate is the per-second change of a cumulative counter. It is zero before a
// second sample exists and when the counter went backwards (wrap or reset).
func Rate(prev, cur float64, elapsed time.Duration) float64 {
	if elapsed <= 0 || cur < prev {
		return 0
	}
	return (cur - prev) / elapsed.Seconds()
}

// Ratio divides two deltas, returning zero when the denominator did not move.
func Ratio(num, den float64) float64 {
	if den <= 0 || num < 0 {
		return 0
	}
	return num / den
}

// Percent is Ratio scaled to 0-100.
func Percent(part, total float64) float64 {
	return Ratio(part, total) * 100
}

// Delta returns cur-prev for cumulative counters, or zero if it went backwards.
func Delta(prev, cur float64) float64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}
