package counters

import (
	"context"
	"time"

	"github.com/theblitlabs/perfcounters/internal/metrics"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

// Result lists the outcome of registering a catalog.
type Result struct {
	Registered []string
	Skipped    []string
}

// Options tune the gauges created by registration.
type Options struct {
	ReadTimeout time.Duration
}

// Register binds def to a gauge in mc when its category, instance and counter
// all exist in src. Missing counters are logged and skipped; Register never
// fails the caller.
func Register(ctx context.Context, mc metrics.Context, src Source, def Definition) bool {
	return register(ctx, mc, src, def, Options{})
}

func register(ctx context.Context, mc metrics.Context, src Source, def Definition, opts Options) bool {
	log := logger.WithComponent("counters")
	log.Debug().
		Str("name", def.Name).
		Str("category", def.Category).
		Str("counter", def.Counter).
		Str("instance", def.Instance).
		Msg("Registering performance counter")

	if !exists(ctx, src, def) {
		log.Error().
			Str("name", def.Name).
			Str("category", def.Category).
			Str("counter", def.Counter).
			Str("instance", def.Instance).
			Msg("Performance counter does not exist")
		return false
	}

	cg := NewCounterGauge(src, def.Category, def.Counter, def.Instance)
	if opts.ReadTimeout > 0 {
		cg.Timeout = opts.ReadTimeout
	}
	var g metrics.Gauge = cg
	if def.Derive != nil {
		g = metrics.NewDerivedGauge(cg, def.Derive)
	}

	if err := mc.Gauge(def.Name, g, def.Unit, def.Tags.With(PerfCounterTag)); err != nil {
		log.Error().
			Err(err).
			Str("name", def.Name).
			Str("context", mc.Name()).
			Msg("Failed to register performance counter gauge")
		return false
	}
	return true
}

// Exists reports whether the counter behind def is available from src.
func Exists(ctx context.Context, src Source, def Definition) bool {
	return exists(ctx, src, def)
}

func exists(ctx context.Context, src Source, def Definition) bool {
	if !src.CategoryExists(def.Category) {
		return false
	}
	if !src.InstanceExists(ctx, def.Category, def.Instance) {
		return false
	}
	return src.CounterExists(def.Category, def.Counter)
}

// RegisterAll registers every definition, continuing past failures.
func RegisterAll(ctx context.Context, mc metrics.Context, src Source, defs []Definition) Result {
	return RegisterAllWithOptions(ctx, mc, src, defs, Options{})
}

// RegisterAllWithOptions is RegisterAll with gauge options.
func RegisterAllWithOptions(ctx context.Context, mc metrics.Context, src Source, defs []Definition, opts Options) Result {
	var res Result
	for _, d := range defs {
		if register(ctx, mc, src, d, opts) {
			res.Registered = append(res.Registered, d.Name)
		} else {
			res.Skipped = append(res.Skipped, d.Name)
		}
	}
	log := logger.WithComponent("counters")
	log.Info().
		Int("registered", len(res.Registered)).
		Int("skipped", len(res.Skipped)).
		Str("context", mc.Name()).
		Msg("Performance counters registered")
	return res
}

// RegisterSystemCounters registers SystemCatalog.
func RegisterSystemCounters(ctx context.Context, mc metrics.Context, src Source) Result {
	return RegisterAll(ctx, mc, src, SystemCatalog())
}

// RegisterAppCounters registers AppCatalog for the process named app followed
// by RuntimeCatalog.
func RegisterAppCounters(ctx context.Context, mc metrics.Context, src Source, app string) Result {
	defs := append(AppCatalog(app), RuntimeCatalog()...)
	return RegisterAll(ctx, mc, src, defs)
}
