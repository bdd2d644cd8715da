package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/theblitlabs/perfcounters/internal/api"
	"github.com/theblitlabs/perfcounters/internal/api/handlers"
	"github.com/theblitlabs/perfcounters/internal/monitoring/health"
	"github.com/theblitlabs/perfcounters/internal/server"
	"github.com/theblitlabs/perfcounters/internal/telemetry"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the counters over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	log := logger.WithComponent("cli")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := newStack(ctx, cfg)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		st.registry,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := telemetry.NewHTTPMetrics(promReg)

	checker := health.NewHealthChecker(cfg.Health.Interval, st.registry, st.source)
	if err := checker.Start(); err != nil {
		return err
	}
	defer checker.Stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	if telemetry.Meter != nil {
		registration, err := telemetry.Bridge(telemetry.Meter, st.registry)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to bridge gauges to OpenTelemetry")
		} else {
			defer func() {
				if err := registration.Unregister(); err != nil {
					log.Debug().Err(err).Msg("Failed to unregister OpenTelemetry callback")
				}
			}()
		}
	}

	router := api.NewRouter(api.Handlers{
		Counters: handlers.NewCounterHandler(st.registry, st.source, st.catalogs),
		Health:   handlers.NewHealthHandler(checker),
		Stream:   handlers.NewStreamHandler(st.registry, cfg.Stream.Interval, cfg.Stream.WriteWait),
		Gatherer: promReg,
	}, cfg.Server.Endpoint, httpMetrics.Middleware)

	srv := server.NewServer(cfg.Server, router)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
		_ = shutdownTelemetry(context.Background())
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Telemetry shutdown failed")
	}
	log.Info().Msg("Shutdown complete")
	return nil
}
