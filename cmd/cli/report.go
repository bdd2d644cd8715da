package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theblitlabs/perfcounters/internal/reporting"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Log counter snapshots periodically",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")
		return runReport(interval, once)
	},
}

func init() {
	reportCmd.Flags().Duration("interval", 0, "Report interval (defaults to REPORT_INTERVAL)")
	reportCmd.Flags().Bool("once", false, "Write a single report and exit")
}

func runReport(interval time.Duration, once bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = cfg.Report.Interval
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := newStack(ctx, cfg)
	r := &reporting.LogReporter{
		Registry: st.registry,
		Interval: interval,
		Level:    zerolog.InfoLevel,
	}

	if once {
		// Rates need two samples one interval apart.
		r.Registry.Snapshot()
		select {
		case <-time.After(cfg.Counters.SampleInterval + 100*time.Millisecond):
		case <-ctx.Done():
			return nil
		}
		r.ReportOnce()
		return nil
	}

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
