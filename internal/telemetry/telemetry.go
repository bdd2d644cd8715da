package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/theblitlabs/perfcounters/internal/config"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

const defaultDialTimeout = 5 * time.Second

var (
	Meter metric.Meter
)

func noop(context.Context) error { return nil }

// Init exports counters and spans to the configured OTLP collector. Telemetry
// is optional: when it is disabled, or the collector does not answer within
// the dial timeout, the returned shutdown does nothing and Meter stays nil.
func Init(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	log := logger.WithComponent("telemetry")
	if !cfg.Enabled {
		return noop, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.OTELCollector.Host, cfg.OTELCollector.Port)
	conn, err := dial(ctx, addr, cfg.OTELCollector.DialTimeout)
	if err != nil {
		log.Warn().Err(err).Str("collector", addr).
			Msg("OpenTelemetry collector unreachable, counters are not exported")
		return noop, nil
	}

	tp, mp, err := providers(ctx, conn, res, cfg.Metrics.Interval)
	if err != nil {
		log.Warn().Err(err).Str("collector", addr).
			Msg("OpenTelemetry exporters unavailable, counters are not exported")
		conn.Close()
		return noop, nil
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	Meter = mp.Meter(cfg.ServiceName)

	log.Info().
		Str("collector", addr).
		Dur("interval", cfg.Metrics.Interval).
		Msg("OpenTelemetry export enabled")

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
		defer cancel()
		return errors.Join(
			wrap("tracer provider", tp.Shutdown(ctx)),
			wrap("meter provider", mp.Shutdown(ctx)),
			wrap("collector connection", conn.Close()),
		)
	}, nil
}

// dial connects to the collector, waiting at most timeout for the
// connection to be ready.
func dial(ctx context.Context, addr string, timeout time.Duration) (*grpc.ClientConn, error) {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
}

// providers creates the trace and metric pipelines sharing conn.
func providers(ctx context.Context, conn *grpc.ClientConn, res *resource.Resource, interval time.Duration) (*sdktrace.TracerProvider, *sdkmetric.MeterProvider, error) {
	spans, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	points, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		_ = spans.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(spans), sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(points, sdkmetric.WithInterval(interval))),
	)
	return tp, mp, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to shut down %s: %w", what, err)
}
