package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theblitlabs/perfcounters/internal/api/handlers"
	"github.com/theblitlabs/perfcounters/internal/api/middleware"
)

// Handlers groups the handlers served by the router. A nil handler leaves
// its routes unregistered.
type Handlers struct {
	Counters *handlers.CounterHandler
	Health   *handlers.HealthHandler
	Stream   *handlers.StreamHandler
	// Gatherer backs the /metrics scrape endpoint.
	Gatherer prometheus.Gatherer
}

// Router wraps mux.Router to add more functionality
type Router struct {
	*mux.Router
	middleware []mux.MiddlewareFunc
	endpoint   string
}

// NewRouter creates and configures a new router with all dependencies
func NewRouter(h Handlers, endpoint string, extra ...mux.MiddlewareFunc) *Router {
	r := &Router{
		Router:     mux.NewRouter(),
		middleware: append([]mux.MiddlewareFunc{middleware.Logging}, extra...),
		endpoint:   endpoint,
	}

	r.setup()
	r.registerRoutes(h)

	return r
}

// setup configures the base router with middleware and common settings
func (r *Router) setup() {
	for _, m := range r.middleware {
		r.Use(m)
	}
}

func (r *Router) registerRoutes(h Handlers) {
	if h.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix(r.endpoint).Subrouter()

	if h.Counters != nil {
		api.HandleFunc("/counters", h.Counters.Snapshot).Methods(http.MethodGet)
		api.HandleFunc("/catalog", h.Counters.Catalog).Methods(http.MethodGet)
		api.HandleFunc("/categories", h.Counters.Categories).Methods(http.MethodGet)
	}
	if h.Health != nil {
		api.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
		api.HandleFunc("/health/{component}", h.Health.Component).Methods(http.MethodGet)
	}
	if h.Stream != nil {
		api.HandleFunc("/stream", h.Stream.Stream).Methods(http.MethodGet)
	}
}

// AddMiddleware adds a new middleware to the router
func (r *Router) AddMiddleware(middleware mux.MiddlewareFunc) {
	r.Use(middleware)
}
