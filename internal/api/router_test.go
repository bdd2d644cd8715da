package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/perfcounters/internal/api/handlers"
	"github.com/theblitlabs/perfcounters/internal/counters"
	"github.com/theblitlabs/perfcounters/internal/metrics"
	"github.com/theblitlabs/perfcounters/internal/monitoring/health"
	"github.com/theblitlabs/perfcounters/internal/telemetry"
)

type testEnv struct {
	router   *Router
	registry *metrics.Registry
	checker  *health.HealthChecker
	promReg  *prometheus.Registry
}

func newTestEnv(t *testing.T, healthy bool) *testEnv {
	t.Helper()
	ctx := context.Background()

	src := counters.NewSet(
		&counters.Category{
			Name: "Memory",
			Counters: map[string]counters.ReadFunc{
				"Available Bytes": func(context.Context, string) (float64, error) {
					if !healthy {
						return 0, errors.New("unavailable")
					}
					return 512 * 1024 * 1024, nil
				},
				"Committed Bytes": func(context.Context, string) (float64, error) { return 1024, nil },
			},
		},
	)
	defs := []counters.Definition{
		{Name: "Available RAM", Unit: metrics.MegaBytes, Category: "Memory", Counter: "Available Bytes",
			Derive: counters.BytesToMegaBytes, Tags: metrics.NewTags("memory")},
		{Name: "Page Faults / sec", Unit: metrics.Custom("faults/s"), Category: "Memory", Counter: "Page Faults/sec",
			Tags: metrics.NewTags("memory")},
	}

	reg := metrics.NewRegistry("perfcounters")
	counters.RegisterAll(ctx, reg.Context("System"), src, defs)

	checker := health.NewHealthChecker(time.Minute, reg, src)
	checker.CheckAll()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(reg)
	httpMetrics := telemetry.NewHTTPMetrics(promReg)

	router := NewRouter(Handlers{
		Counters: handlers.NewCounterHandler(reg, src, []handlers.CatalogGroup{{Context: "System", Definitions: defs}}),
		Health:   handlers.NewHealthHandler(checker),
		Stream:   handlers.NewStreamHandler(reg, 10*time.Millisecond, time.Second),
		Gatherer: promReg,
	}, "/api", httpMetrics.Middleware)

	return &testEnv{router: router, registry: reg, checker: checker, promReg: promReg}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestCounters(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.get(t, "/api/counters")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var values []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &values))
	require.Len(t, values, 1)
	assert.Equal(t, "System.Available RAM", values[0]["name"])
	assert.Equal(t, "System", values[0]["context"])
	assert.Equal(t, 512.0, values[0]["value"])
	assert.Equal(t, "mb", values[0]["unit"])
}

func TestCountersFilter(t *testing.T) {
	env := newTestEnv(t, true)

	var values []map[string]interface{}
	rec := env.get(t, "/api/counters?tag=cpu")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &values))
	assert.Empty(t, values)

	rec = env.get(t, "/api/counters?context=system&tag=perfcounter")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &values))
	assert.Len(t, values, 1)
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.get(t, "/api/catalog")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Available RAM", rows[0]["name"])
	assert.Equal(t, "System", rows[0]["context"])
	assert.Equal(t, true, rows[0]["registered"])
	assert.Equal(t, []interface{}{"memory"}, rows[0]["tags"])
	assert.Equal(t, "Page Faults / sec", rows[1]["name"])
	assert.Equal(t, false, rows[1]["registered"])
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.get(t, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []counters.CategoryInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "Memory", infos[0].Name)
	assert.Equal(t, []string{"Available Bytes", "Committed Bytes"}, infos[0].Counters)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.get(t, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, health.StatusOK, resp.Status)
	assert.Contains(t, resp.Components, health.RegistryComponent)

	rec = env.get(t, "/api/health/registry")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.get(t, "/api/health/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthUnavailable(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.get(t, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, true)
	env.get(t, "/api/counters")

	rec := env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "perfcounters_system_available_ram")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/counters",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, true)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/api/tasks").Code)
}

func TestStream(t *testing.T) {
	env := newTestEnv(t, true)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream?tag=memory"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg struct {
			Type    string                   `json:"type"`
			Payload []map[string]interface{} `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "snapshot", msg.Type)
		require.Len(t, msg.Payload, 1)
		assert.Equal(t, "System.Available RAM", msg.Payload[0]["name"])
	}

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}
