package cli

import (
	"context"

	"github.com/theblitlabs/perfcounters/internal/api/handlers"
	"github.com/theblitlabs/perfcounters/internal/config"
	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/metrics"
	"github.com/theblitlabs/perfcounters/internal/sources/host"
	"github.com/theblitlabs/perfcounters/internal/sources/process"
	"github.com/theblitlabs/perfcounters/internal/sources/runtime"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

const (
	systemContext = "System"
	appContext    = "App"
)

// stack is the counter source, the enabled catalogs and the registry they
// are registered into.
type stack struct {
	source   *counters.Set
	registry *metrics.Registry
	catalogs []handlers.CatalogGroup
}

func newSource(cfg *config.Config) (*counters.Set, *process.Source) {
	ttl := cfg.Counters.SampleInterval
	procs := process.NewSystem(ttl)

	var categories []*counters.Category
	categories = append(categories, host.NewSystem(ttl).Categories()...)
	categories = append(categories, procs.Categories()...)
	categories = append(categories, runtime.New(ttl).Categories()...)
	return counters.NewSet(categories...), procs
}

// catalogs lists the catalogs enabled by cfg, keyed by metrics context.
func catalogs(ctx context.Context, cfg *config.Config, procs *process.Source) []handlers.CatalogGroup {
	var groups []handlers.CatalogGroup
	if cfg.Counters.System {
		groups = append(groups, handlers.CatalogGroup{
			Context:     systemContext,
			Definitions: counters.SystemCatalog(),
		})
	}
	if cfg.Counters.App {
		groups = append(groups, handlers.CatalogGroup{
			Context:     appContext,
			Definitions: appDefinitions(ctx, cfg.Counters.AppName, procs),
		})
	}
	return groups
}

// appDefinitions returns the App catalog for app, or for the current process
// when app is empty. The Process rows are left out when no process name can
// be resolved, since an empty instance would read the _Total of every
// process.
func appDefinitions(ctx context.Context, app string, procs *process.Source) []counters.Definition {
	if app == "" {
		app = procs.SelfName(ctx)
	}
	if app == "" {
		log := logger.WithComponent("cli")
		log.Warn().Msg("Application name could not be resolved, skipping process counters")
		return counters.RuntimeCatalog()
	}
	return append(counters.AppCatalog(app), counters.RuntimeCatalog()...)
}

// newStack builds the source and registers every enabled catalog.
func newStack(ctx context.Context, cfg *config.Config) *stack {
	log := logger.WithComponent("cli")

	source, procs := newSource(cfg)
	st := &stack{
		source:   source,
		registry: metrics.NewRegistry(cfg.Counters.Namespace),
		catalogs: catalogs(ctx, cfg, procs),
	}

	opts := counters.Options{ReadTimeout: cfg.Counters.ReadTimeout}
	for _, group := range st.catalogs {
		res := counters.RegisterAllWithOptions(ctx, st.registry.Context(group.Context), source, group.Definitions, opts)
		if len(res.Skipped) > 0 {
			log.Warn().
				Str("context", group.Context).
				Strs("skipped", res.Skipped).
				Msg("Some performance counters are not available on this host")
		}
	}
	return st
}
