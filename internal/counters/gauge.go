package counters

import (
	"context"
	"math"
	"time"

	"github.com/theblitlabs/perfcounters/internal/metrics"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

// DefaultReadTimeout bounds a single counter read.
const DefaultReadTimeout = 5 * time.Second

// CounterGauge is a metrics.Gauge reading one counter from a Source.
type CounterGauge struct {
	Source   Source
	Category string
	Counter  string
	Instance string
	Timeout  time.Duration
}

var _ metrics.Gauge = (*CounterGauge)(nil)

// NewCounterGauge creates a gauge for category\counter(instance).
func NewCounterGauge(src Source, category, counter, instance string) *CounterGauge {
	return &CounterGauge{
		Source:   src,
		Category: category,
		Counter:  counter,
		Instance: instance,
		Timeout:  DefaultReadTimeout,
	}
}

// Value reads the counter. Failures are logged at debug level and reported
// as NaN.
func (g *CounterGauge) Value() float64 {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	v, err := g.Source.Read(ctx, g.Category, g.Counter, g.Instance)
	if err != nil {
		log := logger.WithComponent("counters")
		log.Debug().
			Err(err).
			Str("category", g.Category).
			Str("counter", g.Counter).
			Str("instance", g.Instance).
			Msg("Failed to read performance counter")
		return math.NaN()
	}
	return v
}
