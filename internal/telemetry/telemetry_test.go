package telemetry

import (
	"context"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/theblitlabs/perfcounters/internal/config"
	"github.com/theblitlabs/perfcounters/internal/metrics"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitUnreachableCollectorIsNoop(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	cfg := config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "perfcounters-test",
		OTELCollector: config.OTELCollectorConfig{
			Host:        "127.0.0.1",
			Port:        port,
			DialTimeout: 200 * time.Millisecond,
		},
		Metrics: config.MetricsConfig{Interval: time.Second},
	}

	start := time.Now()
	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Nil(t, Meter)
	assert.NoError(t, shutdown(context.Background()))
}

func TestBridgeObservesRegistryGauges(t *testing.T) {
	reg := metrics.NewRegistry("pc")
	require.NoError(t, reg.Gauge("Available RAM", metrics.GaugeFunc(func() float64 { return 512 }),
		metrics.MegaBytes, metrics.NewTags("memory", "perfcounter")))
	require.NoError(t, reg.Context("Runtime").Gauge("Goroutines", metrics.GaugeFunc(func() float64 { return 7 }),
		metrics.Threads, metrics.NewTags("threads")))
	require.NoError(t, reg.Gauge("Broken", metrics.GaugeFunc(math.NaN), metrics.None, metrics.Tags{}))

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	registration, err := Bridge(provider.Meter("test"), reg)
	require.NoError(t, err)
	defer registration.Unregister()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	got := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		got[m.Name] = m
	}

	ram, ok := got["pc_available_ram"]
	require.True(t, ok)
	assert.Equal(t, "MiBy", ram.Unit)
	gauge, ok := ram.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 512.0, gauge.DataPoints[0].Value)
	tags, ok := gauge.DataPoints[0].Attributes.Value("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"memory", "perfcounter"}, tags.AsStringSlice())

	goroutines := got["pc_runtime_goroutines"].Data.(metricdata.Gauge[float64])
	require.Len(t, goroutines.DataPoints, 1)
	ctxAttr, ok := goroutines.DataPoints[0].Attributes.Value(attribute.Key("context"))
	require.True(t, ok)
	assert.Equal(t, "Runtime", ctxAttr.AsString())

	if broken, ok := got["pc_broken"]; ok {
		assert.Empty(t, broken.Data.(metricdata.Gauge[float64]).DataPoints)
	}
}

func TestOtelUnit(t *testing.T) {
	assert.Equal(t, "", otelUnit(metrics.None))
	assert.Equal(t, "%", otelUnit(metrics.Percent))
	assert.Equal(t, "ms", otelUnit(metrics.Milliseconds))
	assert.Equal(t, "{pages/s}", otelUnit(metrics.Custom("pages/s")))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/api/counters/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, name := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/counters/"+name, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/api/counters/{name}",status="404"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.active))
}
