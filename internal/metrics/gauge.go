package metrics

import "math"

// Gauge reports an instantaneous value. Implementations return NaN when the
// value cannot be obtained.
type Gauge interface {
	Value() float64
}

// GaugeFunc adapts a function to the Gauge interface.
type GaugeFunc func() float64

func (f GaugeFunc) Value() float64 {
	return f()
}

// DerivedGauge transforms the value of another gauge, e.g. bytes to megabytes.
// NaN passes through untouched.
type DerivedGauge struct {
	Gauge  Gauge
	Derive func(float64) float64
}

// NewDerivedGauge wraps g with derive.
func NewDerivedGauge(g Gauge, derive func(float64) float64) *DerivedGauge {
	return &DerivedGauge{Gauge: g, Derive: derive}
}

func (d *DerivedGauge) Value() float64 {
	v := d.Gauge.Value()
	if math.IsNaN(v) || d.Derive == nil {
		return v
	}
	return d.Derive(v)
}
