package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log := WithComponent("registry")
	log.Info().Str("name", "CPU Usage").Msg("registered")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "registry", line["component"])
	assert.Equal(t, "CPU Usage", line["name"])
	assert.Equal(t, "registered", line["message"])
	assert.Equal(t, "info", line["level"])
}

func TestColorizeLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "DBG",
		"info":  "INF",
		"warn":  "WRN",
		"error": "ERR",
		"trace": "trace",
	}
	for level, want := range tests {
		t.Run(level, func(t *testing.T) {
			assert.Contains(t, colorizeLevel(level), want)
		})
	}
}

func TestInitWithModeLevels(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.DebugLevel)

	InitWithMode(LogModeProd)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	InitWithMode(LogModeTest)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	InitWithMode(LogModePretty)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	InitWithMode(LogModeProd)
	InitWithMode(LogMode("unknown"))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
