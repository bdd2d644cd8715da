package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/theblitlabs/perfcounters/internal/monitoring/health"
)

type HealthResponse struct {
	Status     health.Status                      `json:"status"`
	Components map[string]*health.ComponentHealth `json:"components"`
}

type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Health reports every component. An ERROR overall status answers 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.checker.Overall()
	code := http.StatusOK
	if status == health.StatusError {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:     status,
		Components: h.checker.GetAllHealth(),
	})
}

func (h *HealthHandler) Component(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["component"]
	component := h.checker.GetComponentHealth(name)
	if component == nil {
		http.Error(w, "component not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, component)
}
