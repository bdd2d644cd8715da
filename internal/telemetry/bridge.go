package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/theblitlabs/perfcounters/internal/metrics"
)

// Bridge exposes every gauge currently in reg as an OpenTelemetry observable
// gauge on meter. Gauges registered later are not picked up. Unavailable
// readings (NaN) are not observed.
func Bridge(meter metric.Meter, reg *metrics.Registry) (metric.Registration, error) {
	type observed struct {
		gauge metric.Float64ObservableGauge
		entry metrics.Entry
		attrs metric.MeasurementOption
	}

	var (
		all         []observed
		instruments []metric.Observable
	)
	var firstErr error
	reg.Each(func(e metrics.Entry) {
		if firstErr != nil {
			return
		}
		g, err := meter.Float64ObservableGauge(e.MetricName(),
			metric.WithDescription(e.Name),
			metric.WithUnit(otelUnit(e.Unit)),
		)
		if err != nil {
			firstErr = fmt.Errorf("failed to create gauge %s: %w", e.Name, err)
			return
		}
		all = append(all, observed{gauge: g, entry: e, attrs: metric.WithAttributes(attributes(e)...)})
		instruments = append(instruments, g)
	})
	if firstErr != nil {
		return nil, firstErr
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, obs := range all {
			v := metrics.Value{Value: obs.entry.Gauge.Value()}
			if !v.Valid() {
				continue
			}
			o.ObserveFloat64(obs.gauge, v.Value, obs.attrs)
		}
		return nil
	}, instruments...)
	if err != nil {
		return nil, fmt.Errorf("failed to register gauge callback: %w", err)
	}
	return registration, nil
}

func attributes(e metrics.Entry) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("name", e.Name)}
	if e.Context != "" {
		attrs = append(attrs, attribute.String("context", e.Context))
	}
	if e.Tags.Len() > 0 {
		attrs = append(attrs, attribute.StringSlice("tags", e.Tags.Values()))
	}
	return attrs
}

// otelUnit maps units to UCUM where one exists and to an annotation
// otherwise.
func otelUnit(u metrics.Unit) string {
	switch u {
	case metrics.None:
		return ""
	case metrics.Bytes:
		return "By"
	case metrics.KiloBytes:
		return "KiBy"
	case metrics.MegaBytes:
		return "MiBy"
	case metrics.Percent:
		return "%"
	case metrics.Seconds:
		return "s"
	case metrics.Milliseconds:
		return "ms"
	}
	return "{" + u.String() + "}"
}
