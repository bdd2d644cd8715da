package metrics

import "strings"

var symbolReplacer = strings.NewReplacer(
	"%", " percent ",
	"/", " per ",
	"#", " num ",
)

// MetricName converts a display name such as "Pages Input/sec" into a valid
// Prometheus metric name ("pages_input_per_sec"), prefixed with namespace when
// it is not empty.
func MetricName(namespace, name string) string {
	s := symbolReplacer.Replace(strings.ToLower(name))

	var b strings.Builder
	b.Grow(len(s))
	underscore := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimRight(b.String(), "_")

	if namespace != "" {
		ns := MetricName("", namespace)
		if out == "" {
			return ns
		}
		return ns + "_" + out
	}
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}
