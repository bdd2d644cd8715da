package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrEmptyName   = errors.New("metric name is empty")
	ErrInvalidName = errors.New("metric name has no exportable characters")
	ErrNilGauge    = errors.New("gauge is nil")
	ErrDuplicate   = errors.New("metric name already in use")
)

// A Context is a named scope in which gauges are registered. Child contexts
// prefix the names of their gauges with their own name.
type Context interface {
	Name() string
	Gauge(name string, g Gauge, unit Unit, tags Tags) error
	Context(name string) Context
}

// Entry is a gauge tracked by a Registry.
type Entry struct {
	Name    string
	Context string
	Gauge   Gauge
	Unit    Unit
	Tags    Tags

	metricName string
	desc       *prometheus.Desc
}

// MetricName is the Prometheus name the entry is exported under.
func (e Entry) MetricName() string {
	return e.metricName
}

// A Registry is the root metrics context. It tracks gauges by their full name
// and exposes them to Prometheus as an unchecked collector.
type Registry struct {
	mu        sync.RWMutex
	namespace string
	entries   map[string]*Entry
	exported  map[string]string
}

var _ prometheus.Collector = (*Registry)(nil)

// NewRegistry creates an empty Registry. namespace prefixes every exported
// Prometheus metric name and may be empty.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace: namespace,
		entries:   map[string]*Entry{},
		exported:  map[string]string{},
	}
}

func (r *Registry) Name() string {
	return ""
}

func (r *Registry) Namespace() string {
	return r.namespace
}

// Gauge registers g under name in the root context.
func (r *Registry) Gauge(name string, g Gauge, unit Unit, tags Tags) error {
	return r.add("", name, g, unit, tags)
}

// Context returns a child context named name.
func (r *Registry) Context(name string) Context {
	return &childContext{root: r, name: strings.TrimSpace(name)}
}

func (r *Registry) add(context, name string, g Gauge, unit Unit, tags Tags) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if g == nil {
		return fmt.Errorf("%w: %s", ErrNilGauge, name)
	}

	full := joinName(context, name)
	metricName := MetricName(r.namespace, full)
	if metricName == "" {
		return fmt.Errorf("%w: %s", ErrInvalidName, full)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[full]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, full)
	}
	if other, ok := r.exported[metricName]; ok {
		return fmt.Errorf("%w: %s collides with %s as %s", ErrDuplicate, full, other, metricName)
	}

	help := full
	if unit != None {
		help = fmt.Sprintf("%s (%s)", full, unit)
	}
	r.entries[full] = &Entry{
		Name:       full,
		Context:    context,
		Gauge:      g,
		Unit:       unit,
		Tags:       tags,
		metricName: metricName,
		desc:       prometheus.NewDesc(metricName, help, nil, constLabels(context, unit, tags)),
	}
	r.exported[metricName] = full
	return nil
}

// Unregister removes the gauge with the given full name.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return false
	}
	delete(r.entries, name)
	delete(r.exported, e.metricName)
	return true
}

// Lookup returns the entry registered under the full name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Each calls f for every entry in name order. Gauges are not read while the
// registry lock is held, so f may be slow.
func (r *Registry) Each(f func(Entry)) {
	for _, e := range r.sorted() {
		f(e)
	}
}

// Snapshot reads every gauge once.
func (r *Registry) Snapshot() []Value {
	entries := r.sorted()
	values := make([]Value, 0, len(entries))
	for _, e := range entries {
		values = append(values, Value{
			Name:    e.Name,
			Context: e.Context,
			Value:   e.Gauge.Value(),
			Unit:    e.Unit,
			Tags:    e.Tags,
		})
	}
	return values
}

func (r *Registry) sorted() []Entry {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, *e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Describe sends nothing: the set of gauges changes at runtime, so the
// registry is an unchecked collector.
func (r *Registry) Describe(chan<- *prometheus.Desc) {}

func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	for _, e := range r.sorted() {
		ch <- prometheus.MustNewConstMetric(e.desc, prometheus.GaugeValue, e.Gauge.Value())
	}
}

// constLabels omits empty values: each gauge is its own metric family, so the
// label sets need not line up.
func constLabels(context string, unit Unit, tags Tags) prometheus.Labels {
	labels := prometheus.Labels{}
	if context != "" {
		labels["context"] = context
	}
	if unit != None {
		labels["unit"] = unit.String()
	}
	if tags.Len() > 0 {
		labels["tags"] = tags.String()
	}
	return labels
}

type childContext struct {
	root *Registry
	name string
}

func (c *childContext) Name() string {
	return c.name
}

func (c *childContext) Gauge(name string, g Gauge, unit Unit, tags Tags) error {
	return c.root.add(c.name, name, g, unit, tags)
}

func (c *childContext) Context(name string) Context {
	return &childContext{root: c.root, name: joinName(c.name, strings.TrimSpace(name))}
}

func joinName(context, name string) string {
	if context == "" {
		return name
	}
	if name == "" {
		return context
	}
	return context + "." + name
}
