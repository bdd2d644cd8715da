package metrics

import (
	"encoding/json"
	"strings"
)

// Tags is an ordered set of labels attached to a gauge. The zero value is an
// empty set.
type Tags struct {
	values []string
}

// NewTags builds a tag set, dropping blanks and duplicates while keeping the
// first-seen order.
func NewTags(tags ...string) Tags {
	return Tags{}.With(tags...)
}

// With returns a new set holding the receiver's tags followed by extra.
func (t Tags) With(extra ...string) Tags {
	out := make([]string, 0, len(t.values)+len(extra))
	seen := make(map[string]struct{}, len(t.values)+len(extra))
	for _, tag := range append(append([]string{}, t.values...), extra...) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return Tags{values: out}
}

// Has reports whether tag is in the set.
func (t Tags) Has(tag string) bool {
	for _, v := range t.values {
		if v == tag {
			return true
		}
	}
	return false
}

// Values returns a copy of the tags.
func (t Tags) Values() []string {
	return append([]string(nil), t.values...)
}

func (t Tags) Len() int {
	return len(t.values)
}

func (t Tags) String() string {
	return strings.Join(t.values, ",")
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t.values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.values)
}
