package metrics

import (
	"encoding/json"
	"math"
)

// Value is a single gauge reading.
type Value struct {
	Name    string  `json:"name"`
	Context string  `json:"context,omitempty"`
	Value   float64 `json:"value"`
	Unit    Unit    `json:"unit"`
	Tags    Tags    `json:"tags"`
}

// Valid reports whether the reading is a finite number.
func (v Value) Valid() bool {
	return !math.IsNaN(v.Value) && !math.IsInf(v.Value, 0)
}

// MarshalJSON encodes unavailable readings as null since JSON has no NaN.
func (v Value) MarshalJSON() ([]byte, error) {
	var value *float64
	if v.Valid() {
		value = &v.Value
	}
	return json.Marshal(struct {
		Name    string   `json:"name"`
		Context string   `json:"context,omitempty"`
		Value   *float64 `json:"value"`
		Unit    Unit     `json:"unit"`
		Tags    Tags     `json:"tags"`
	}{v.Name, v.Context, value, v.Unit, v.Tags})
}
