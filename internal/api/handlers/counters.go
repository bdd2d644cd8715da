package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/metrics"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

// CatalogGroup is a catalog registered into one metrics context.
type CatalogGroup struct {
	Context     string
	Definitions []counters.Definition
}

// CatalogRow describes one catalog definition and whether it was registered.
type CatalogRow struct {
	Name       string       `json:"name"`
	Context    string       `json:"context,omitempty"`
	Category   string       `json:"category"`
	Counter    string       `json:"counter"`
	Instance   string       `json:"instance,omitempty"`
	Unit       metrics.Unit `json:"unit"`
	Tags       metrics.Tags `json:"tags"`
	Registered bool         `json:"registered"`
}

type CounterHandler struct {
	registry *metrics.Registry
	source   counters.Source
	catalogs []CatalogGroup
}

func NewCounterHandler(registry *metrics.Registry, source counters.Source, catalogs []CatalogGroup) *CounterHandler {
	return &CounterHandler{
		registry: registry,
		source:   source,
		catalogs: catalogs,
	}
}

// Filter selects gauges by the name, context and tag query parameters.
type Filter struct {
	Name    string
	Context string
	Tag     string
}

// FilterFromRequest reads a Filter from the query string.
func FilterFromRequest(r *http.Request) Filter {
	q := r.URL.Query()
	return Filter{
		Name:    strings.TrimSpace(q.Get("name")),
		Context: strings.TrimSpace(q.Get("context")),
		Tag:     strings.TrimSpace(q.Get("tag")),
	}
}

// Apply keeps the values matching every non-empty field.
func (f Filter) Apply(values []metrics.Value) []metrics.Value {
	out := make([]metrics.Value, 0, len(values))
	for _, v := range values {
		if f.Name != "" && !strings.EqualFold(v.Name, f.Name) {
			continue
		}
		if f.Context != "" && !strings.EqualFold(v.Context, f.Context) {
			continue
		}
		if f.Tag != "" && !v.Tags.Has(f.Tag) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Snapshot reads every registered gauge.
func (h *CounterHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	values := FilterFromRequest(r).Apply(h.registry.Snapshot())
	writeJSON(w, http.StatusOK, values)
}

// Catalog lists the catalog definitions with their registration state.
func (h *CounterHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	rows := make([]CatalogRow, 0)
	for _, group := range h.catalogs {
		for _, d := range group.Definitions {
			full := d.Name
			if group.Context != "" {
				full = group.Context + "." + d.Name
			}
			_, registered := h.registry.Lookup(full)
			rows = append(rows, CatalogRow{
				Name:       d.Name,
				Context:    group.Context,
				Category:   d.Category,
				Counter:    d.Counter,
				Instance:   d.Instance,
				Unit:       d.Unit,
				Tags:       d.Tags,
				Registered: registered,
			})
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

// Categories lists every category the source offers.
func (h *CounterHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, counters.Describe(r.Context(), h.source))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.WithComponent("api")
		log.Debug().Err(err).Msg("Response encode failed")
	}
}
