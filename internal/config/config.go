package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"SERVER"`
	Counters  CountersConfig  `mapstructure:"COUNTERS"`
	Telemetry TelemetryConfig `mapstructure:"TELEMETRY"`
	Report    ReportConfig    `mapstructure:"REPORT"`
	Health    HealthConfig    `mapstructure:"HEALTH"`
	Stream    StreamConfig    `mapstructure:"STREAM"`
}

type ServerConfig struct {
	Host     string `mapstructure:"HOST"`
	Port     string `mapstructure:"PORT"`
	Endpoint string `mapstructure:"ENDPOINT"`
}

// Addr is the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type CountersConfig struct {
	Namespace string `mapstructure:"NAMESPACE"`
	System    bool   `mapstructure:"SYSTEM"`
	App       bool   `mapstructure:"APP"`
	// AppName is the process instance of the app counters. Empty means the
	// current process.
	AppName        string        `mapstructure:"APP_NAME"`
	SampleInterval time.Duration `mapstructure:"SAMPLE_INTERVAL"`
	ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
}

type TelemetryConfig struct {
	Enabled       bool                `mapstructure:"ENABLED"`
	ServiceName   string              `mapstructure:"SERVICE_NAME"`
	OTELCollector OTELCollectorConfig `mapstructure:"OTEL_COLLECTOR"`
	Metrics       MetricsConfig       `mapstructure:"METRICS"`
}

type OTELCollectorConfig struct {
	Host        string        `mapstructure:"HOST"`
	Port        int           `mapstructure:"PORT"`
	DialTimeout time.Duration `mapstructure:"DIAL_TIMEOUT"`
}

type MetricsConfig struct {
	Interval time.Duration `mapstructure:"INTERVAL"`
}

type ReportConfig struct {
	Interval time.Duration `mapstructure:"INTERVAL"`
}

type HealthConfig struct {
	Interval time.Duration `mapstructure:"INTERVAL"`
}

type StreamConfig struct {
	Interval  time.Duration `mapstructure:"INTERVAL"`
	WriteWait time.Duration `mapstructure:"WRITE_WAIT"`
}

// Default returns the configuration used when no file or environment
// variable overrides a key.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     "9464",
			Endpoint: "/api",
		},
		Counters: CountersConfig{
			Namespace:      "perfcounters",
			System:         true,
			App:            true,
			SampleInterval: time.Second,
			ReadTimeout:    5 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "perfcounters",
			OTELCollector: OTELCollectorConfig{
				Host:        "localhost",
				Port:        4317,
				DialTimeout: 5 * time.Second,
			},
			Metrics: MetricsConfig{Interval: 15 * time.Second},
		},
		Report: ReportConfig{Interval: 10 * time.Second},
		Health: HealthConfig{Interval: 30 * time.Second},
		Stream: StreamConfig{
			Interval:  time.Second,
			WriteWait: 10 * time.Second,
		},
	}
}

// Validate rejects configurations the commands cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER.PORT is required"))
	}
	if !strings.HasPrefix(c.Server.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("SERVER.ENDPOINT must start with /: %q", c.Server.Endpoint))
	}
	for key, d := range map[string]time.Duration{
		"COUNTERS.SAMPLE_INTERVAL":   c.Counters.SampleInterval,
		"COUNTERS.READ_TIMEOUT":      c.Counters.ReadTimeout,
		"TELEMETRY.METRICS.INTERVAL": c.Telemetry.Metrics.Interval,
		"REPORT.INTERVAL":            c.Report.Interval,
		"HEALTH.INTERVAL":            c.Health.Interval,
		"STREAM.INTERVAL":            c.Stream.Interval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, d))
		}
	}
	if c.Telemetry.Enabled && c.Telemetry.OTELCollector.Host == "" {
		errs = append(errs, errors.New("TELEMETRY.OTEL_COLLECTOR.HOST is required when telemetry is enabled"))
	}
	return errors.Join(errs...)
}

type ConfigManager struct {
	config     *Config
	configPath string
	mutex      sync.RWMutex
}

var (
	instance *ConfigManager
	once     sync.Once
)

func GetConfigManager() *ConfigManager {
	once.Do(func() {
		instance = &ConfigManager{
			configPath: ".env",
		}
	})
	return instance
}

func (cm *ConfigManager) SetConfigPath(path string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.configPath = path
	cm.config = nil
}

func (cm *ConfigManager) GetConfigPath() string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.configPath
}

func (cm *ConfigManager) GetConfig() (*Config, error) {
	cm.mutex.RLock()
	if cm.config != nil {
		defer cm.mutex.RUnlock()
		return cm.config, nil
	}
	cm.mutex.RUnlock()

	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.config != nil {
		return cm.config, nil
	}

	cfg, err := Load(cm.configPath)
	if err != nil {
		return nil, err
	}
	cm.config = cfg
	return cm.config, nil
}

// Load reads path (a .env or YAML file) over Default(), then applies
// environment variables such as SERVER_PORT or COUNTERS_SAMPLE_INTERVAL. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Flat keys (SERVER_PORT) come from .env files and the environment,
	// nested keys (SERVER.PORT) from YAML.
	for key, def := range defaults(Default()) {
		flat := strings.ReplaceAll(key, ".", "_")
		if v.IsSet(flat) {
			v.SetDefault(key, v.Get(flat))
		} else {
			v.SetDefault(key, def)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func defaults(d *Config) map[string]interface{} {
	return map[string]interface{}{
		"SERVER.HOST":                           d.Server.Host,
		"SERVER.PORT":                           d.Server.Port,
		"SERVER.ENDPOINT":                       d.Server.Endpoint,
		"COUNTERS.NAMESPACE":                    d.Counters.Namespace,
		"COUNTERS.SYSTEM":                       d.Counters.System,
		"COUNTERS.APP":                          d.Counters.App,
		"COUNTERS.APP_NAME":                     d.Counters.AppName,
		"COUNTERS.SAMPLE_INTERVAL":              d.Counters.SampleInterval,
		"COUNTERS.READ_TIMEOUT":                 d.Counters.ReadTimeout,
		"TELEMETRY.ENABLED":                     d.Telemetry.Enabled,
		"TELEMETRY.SERVICE_NAME":                d.Telemetry.ServiceName,
		"TELEMETRY.OTEL_COLLECTOR.HOST":         d.Telemetry.OTELCollector.Host,
		"TELEMETRY.OTEL_COLLECTOR.PORT":         d.Telemetry.OTELCollector.Port,
		"TELEMETRY.OTEL_COLLECTOR.DIAL_TIMEOUT": d.Telemetry.OTELCollector.DialTimeout,
		"TELEMETRY.METRICS.INTERVAL":            d.Telemetry.Metrics.Interval,
		"REPORT.INTERVAL":                       d.Report.Interval,
		"HEALTH.INTERVAL":                       d.Health.Interval,
		"STREAM.INTERVAL":                       d.Stream.Interval,
		"STREAM.WRITE_WAIT":                     d.Stream.WriteWait,
	}
}
