// Package reporting writes periodic gauge snapshots to the log.
package reporting

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/theblitlabs/perfcounters/internal/metrics"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

// DefaultInterval is used when LogReporter.Interval is not positive.
const DefaultInterval = 10 * time.Second

// Snapshotter is the part of metrics.Registry a reporter reads.
type Snapshotter interface {
	Snapshot() []metrics.Value
}

// LogReporter logs one line per gauge on every tick.
type LogReporter struct {
	Registry Snapshotter
	Interval time.Duration
	// Level of the per-gauge lines. Zero is zerolog.DebugLevel, so set
	// zerolog.InfoLevel to see them at the default log level.
	Level zerolog.Level
}

// Run reports until ctx is cancelled. The first report is written
// immediately.
func (r *LogReporter) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.ReportOnce()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.ReportOnce()
		}
	}
}

// ReportOnce logs the current value of every gauge and returns how many
// were unavailable.
func (r *LogReporter) ReportOnce() int {
	log := logger.WithComponent("reporter")
	values := r.Registry.Snapshot()

	unavailable := 0
	for _, v := range values {
		ev := log.WithLevel(r.Level).
			Str("gauge", v.Name).
			Str("unit", v.Unit.String()).
			Strs("tags", v.Tags.Values())
		if v.Context != "" {
			ev = ev.Str("context", v.Context)
		}
		if v.Valid() {
			ev.Float64("value", v.Value).Msg("Gauge")
		} else {
			unavailable++
			ev.Bool("available", false).Msg("Gauge")
		}
	}

	log.Info().
		Int("gauges", len(values)).
		Int("unavailable", unavailable).
		Msg("Report complete")
	return unavailable
}
