package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogMode selects the output format and minimum level of the global logger.
type LogMode string

const (
	LogModeDebug  LogMode = "debug"
	LogModePretty LogMode = "pretty"
	LogModeInfo   LogMode = "info"
	LogModeProd   LogMode = "prod"
	LogModeTest   LogMode = "test"
)

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	log = zerolog.New(io.Discard)
}

// InitWithMode configures the global logger for the given mode. Unknown modes
// fall back to pretty.
func InitWithMode(mode LogMode) {
	zerolog.TimeFieldFormat = time.RFC3339

	var l zerolog.Logger
	switch mode {
	case LogModeProd:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
	case LogModeInfo:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		l = zerolog.New(consoleWriter(os.Stdout)).With().Timestamp().Logger()
	case LogModeTest:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		l = zerolog.New(consoleWriter(os.Stderr)).With().Timestamp().Logger()
	case LogModeDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		l = zerolog.New(consoleWriter(os.Stdout)).With().Timestamp().Caller().Logger()
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		l = zerolog.New(consoleWriter(os.Stdout)).With().Timestamp().Logger()
	}

	set(l)
}

// SetOutput replaces the global logger with a JSON logger writing to w.
// Tests use it to capture log lines.
func SetOutput(w io.Writer) {
	set(zerolog.New(w).With().Timestamp().Logger())
}

func set(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
	zerolog.DefaultContextLogger = &log
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			return colorizeLevel(level)
		},
		FormatMessage: func(i interface{}) string {
			msg, _ := i.(string)
			return colorize(msg, cyan)
		},
		FormatFieldName: func(i interface{}) string {
			return colorize(fmt.Sprint(i)+":", gray)
		},
		FormatFieldValue: func(i interface{}) string {
			switch v := i.(type) {
			case string:
				return colorize(v, blue)
			case json.Number:
				return colorize(v.String(), blue)
			default:
				return colorize(fmt.Sprint(v), blue)
			}
		},
	}
}

// ANSI color codes
const (
	gray  = "\x1b[37m"
	blue  = "\x1b[34m"
	cyan  = "\x1b[36m"
	red   = "\x1b[31m"
	reset = "\x1b[0m"
)

func colorize(s, color string) string {
	return color + s + reset
}

func colorizeLevel(level string) string {
	switch level {
	case "debug":
		return colorize("DBG", gray)
	case "info":
		return colorize("INF", blue)
	case "warn":
		return colorize("WRN", cyan)
	case "error":
		return colorize("ERR", red)
	case "fatal":
		return colorize("FTL", red)
	default:
		return colorize(level, blue)
	}
}

// WithComponent returns a sub-logger tagged with the given component name.
func WithComponent(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.With().Str("component", component).Logger()
}
