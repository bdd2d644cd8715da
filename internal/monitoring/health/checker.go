package health

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	// StatusOK indicates the component is healthy
	StatusOK Status = "OK"
	// StatusWarning indicates the component has issues but is still functional
	StatusWarning Status = "WARNING"
	// StatusError indicates the component is not functioning
	StatusError Status = "ERROR"
)

// RegistryComponent is the name under which the registry check is stored.
const RegistryComponent = "registry"

// probeTimeout bounds a single category probe.
const probeTimeout = 5 * time.Second

// ComponentHealth represents the health status of a system component
type ComponentHealth struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message"`
	LastChecked time.Time `json:"last_checked"`
}

// Sizer is the part of metrics.Registry the checker needs.
type Sizer interface {
	Len() int
}

// HealthChecker monitors the registry and every category of a counter
// source.
type HealthChecker struct {
	components map[string]*ComponentHealth
	mu         sync.RWMutex
	checkFreq  time.Duration
	registry   Sizer
	source     counters.Source
	scheduler  *gocron.Scheduler
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(checkFreq time.Duration, registry Sizer, source counters.Source) *HealthChecker {
	if checkFreq == 0 {
		checkFreq = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &HealthChecker{
		components: make(map[string]*ComponentHealth),
		checkFreq:  checkFreq,
		registry:   registry,
		source:     source,
		scheduler:  gocron.NewScheduler(time.UTC),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins periodic health checks. The first check runs immediately.
func (hc *HealthChecker) Start() error {
	log := logger.WithComponent("health_checker")
	log.Info().Dur("frequency", hc.checkFreq).Msg("Starting health checker")

	hc.scheduler.SingletonMode()
	if _, err := hc.scheduler.Every(hc.checkFreq).Do(hc.CheckAll); err != nil {
		return fmt.Errorf("failed to schedule health checks: %w", err)
	}
	hc.scheduler.StartAsync()
	return nil
}

// Stop halts the health checker and waits for a running check to finish.
func (hc *HealthChecker) Stop() {
	log := logger.WithComponent("health_checker")
	hc.cancel()
	hc.scheduler.Stop()
	log.Info().Msg("Health checker stopped")
}

// CheckAll runs all health checks
func (hc *HealthChecker) CheckAll() {
	hc.CheckRegistry()
	if hc.source == nil {
		return
	}
	for _, category := range hc.source.Categories() {
		hc.CheckCategory(category)
	}
}

// CheckRegistry reports an error while no gauge is registered.
func (hc *HealthChecker) CheckRegistry() {
	health := &ComponentHealth{
		Name:        RegistryComponent,
		LastChecked: time.Now(),
	}

	switch {
	case hc.registry == nil:
		health.Status = StatusError
		health.Message = "Registry not initialized"
	case hc.registry.Len() == 0:
		health.Status = StatusError
		health.Message = "No performance counters registered"
	default:
		health.Status = StatusOK
		health.Message = fmt.Sprintf("%d gauges registered", hc.registry.Len())
	}

	hc.store(health)
}

// CheckCategory reads the first counter of category as a probe.
func (hc *HealthChecker) CheckCategory(category string) {
	log := logger.WithComponent("health_checker.category")

	health := &ComponentHealth{
		Name:        CategoryComponent(category),
		LastChecked: time.Now(),
	}

	names := hc.source.Counters(category)
	if len(names) == 0 {
		health.Status = StatusWarning
		health.Message = "Category has no counters"
		hc.store(health)
		return
	}

	ctx, cancel := context.WithTimeout(hc.ctx, probeTimeout)
	defer cancel()

	instance := ""
	if instances, err := hc.source.Instances(ctx, category); err != nil {
		health.Status = StatusError
		health.Message = fmt.Sprintf("Failed to list instances: %v", err)
		log.Error().Err(err).Str("category", category).Msg("Failed to list counter instances")
		hc.store(health)
		return
	} else if len(instances) > 0 {
		instance = instances[0]
	}

	v, err := hc.source.Read(ctx, category, names[0], instance)
	switch {
	case err != nil:
		health.Status = StatusError
		health.Message = fmt.Sprintf("Probe of %s failed: %v", names[0], err)
		log.Error().Err(err).Str("category", category).Str("counter", names[0]).Msg("Counter probe failed")
	case math.IsNaN(v) || math.IsInf(v, 0):
		health.Status = StatusWarning
		health.Message = fmt.Sprintf("Probe of %s returned no value", names[0])
	default:
		health.Status = StatusOK
		health.Message = fmt.Sprintf("%d counters available", len(names))
		log.Debug().Str("category", category).Float64("probe", v).Msg("Category healthy")
	}

	hc.store(health)
}

// CategoryComponent is the component name of a counter category.
func CategoryComponent(category string) string {
	return "category:" + category
}

func (hc *HealthChecker) store(health *ComponentHealth) {
	hc.mu.Lock()
	hc.components[health.Name] = health
	hc.mu.Unlock()
}

// GetAllHealth returns the health status of all components
func (hc *HealthChecker) GetAllHealth() map[string]*ComponentHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	result := make(map[string]*ComponentHealth, len(hc.components))
	for k, v := range hc.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// GetComponentHealth returns the health status of a specific component
func (hc *HealthChecker) GetComponentHealth(name string) *ComponentHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	if component, exists := hc.components[name]; exists {
		componentCopy := *component
		return &componentCopy
	}

	return nil
}

// Overall is the worst status of any component, or OK when nothing has been
// checked yet.
func (hc *HealthChecker) Overall() Status {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := StatusOK
	for _, c := range hc.components {
		switch c.Status {
		case StatusError:
			return StatusError
		case StatusWarning:
			status = StatusWarning
		}
	}
	return status
}
