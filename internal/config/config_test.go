package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, "perf.env", `
SERVER_PORT=8080
SERVER_ENDPOINT=/v1
COUNTERS_SYSTEM=false
COUNTERS_APP_NAME=worker
COUNTERS_SAMPLE_INTERVAL=250ms
TELEMETRY_ENABLED=true
TELEMETRY_OTEL_COLLECTOR_PORT=4318
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/v1", cfg.Server.Endpoint)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.False(t, cfg.Counters.System)
	assert.True(t, cfg.Counters.App)
	assert.Equal(t, "worker", cfg.Counters.AppName)
	assert.Equal(t, 250*time.Millisecond, cfg.Counters.SampleInterval)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 4318, cfg.Telemetry.OTELCollector.Port)
	assert.Equal(t, "localhost", cfg.Telemetry.OTELCollector.Host)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.OTELCollector.DialTimeout)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "perf.yaml", `
SERVER:
  HOST: 127.0.0.1
  PORT: "9000"
COUNTERS:
  NAMESPACE: host
  READ_TIMEOUT: 2s
REPORT:
  INTERVAL: 1m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, "host", cfg.Counters.Namespace)
	assert.Equal(t, 2*time.Second, cfg.Counters.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.Report.Interval)
	assert.Equal(t, 30*time.Second, cfg.Health.Interval)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "perf.env", "SERVER_PORT=8080\n")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("STREAM_INTERVAL", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Stream.Interval)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeFile(t, "perf.env", "HEALTH_INTERVAL=0s\nSERVER_ENDPOINT=api\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HEALTH.INTERVAL must be positive")
	assert.Contains(t, err.Error(), "SERVER.ENDPOINT must start with /")
}

func TestConfigManagerCachesUntilPathChanges(t *testing.T) {
	cm := &ConfigManager{}
	cm.SetConfigPath(writeFile(t, "a.env", "SERVER_PORT=1111\n"))

	first, err := cm.GetConfig()
	require.NoError(t, err)
	second, err := cm.GetConfig()
	require.NoError(t, err)
	assert.Same(t, first, second)

	cm.SetConfigPath(writeFile(t, "b.env", "SERVER_PORT=2222\n"))
	third, err := cm.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "2222", third.Server.Port)
	assert.Equal(t, "b.env", filepath.Base(cm.GetConfigPath()))
}
