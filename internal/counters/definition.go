package counters

import (
	"github.com/theblitlabs/perfcounters/internal/metrics"
)

// PerfCounterTag is added to the tags of every gauge registered from a
// Definition.
const PerfCounterTag = "perfcounter"

// A Definition binds a counter to a named gauge.
type Definition struct {
	Name     string
	Unit     metrics.Unit
	Category string
	Counter  string
	// Instance is empty for single-instance categories.
	Instance string
	// Derive converts the raw counter value, e.g. bytes to megabytes.
	Derive func(float64) float64
	Tags   metrics.Tags
}

// Conversions shared by the catalogs.
var (
	BytesToMegaBytes = func(v float64) float64 { return v / (1024 * 1024.0) }
	BytesToKiloBytes = func(v float64) float64 { return v / 1024.0 }
	SecondsToMillis  = func(v float64) float64 { return v * 1000.0 }
)

func def(name string, unit metrics.Unit, category, counter, instance string, derive func(float64) float64, tags ...string) Definition {
	return Definition{
		Name:     name,
		Unit:     unit,
		Category: category,
		Counter:  counter,
		Instance: instance,
		Derive:   derive,
		Tags:     metrics.NewTags(tags...),
	}
}
