// Package config loads flatci's tool settings from an optional YAML file and
// FLATCI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidJobs     = errors.New("jobs must be positive")
	ErrInvalidWorkers  = errors.New("parallelism.workers must not be negative")
	ErrInvalidMakeJobs = errors.New("parallelism.make_jobs must be positive")
	ErrInvalidLogLevel = errors.New("unknown logging.level")
	ErrInvalidFormat   = errors.New("unknown logging.format")
)

const (
	envPrefix      = "FLATCI"
	defaultJobs    = 2
	defaultCleanup = "on-success"
)

// Config holds all configuration for flatci.
type Config struct {
	Jobs           int               `mapstructure:"jobs"`
	StateDir       string            `mapstructure:"state_dir"`
	PackageManager string            `mapstructure:"package_manager"`
	Cleanup        string            `mapstructure:"cleanup"`
	Parallelism    ParallelismConfig `mapstructure:"parallelism"`
	Logging        LoggingConfig     `mapstructure:"logging"`
	Telemetry      TelemetryConfig   `mapstructure:"telemetry"`
	History        HistoryConfig     `mapstructure:"history"`
}

// ParallelismConfig holds the hints passed to the build and test tools.
type ParallelismConfig struct {
	// Workers is the test worker count; 0 lets the test runner decide ("auto").
	Workers  int `mapstructure:"workers"`
	MakeJobs int `mapstructure:"make_jobs"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds tracing and metrics configuration.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsFile  string `mapstructure:"metrics_file"`
}

// HistoryConfig holds run history configuration.
type HistoryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// WorkersArg renders the worker hint for test runner templates.
func (p ParallelismConfig) WorkersArg() string {
	if p.Workers <= 0 {
		return "auto"
	}
	return fmt.Sprint(p.Workers)
}

// Env returns the environment variables consumed by the build and test tools.
func (p ParallelismConfig) Env() map[string]string {
	threads := p.Workers
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return map[string]string{
		"SAGE_NUM_THREADS": fmt.Sprint(threads),
		"MAKEFLAGS":        fmt.Sprintf("-j%d", p.MakeJobs),
	}
}

// Load loads configuration from configPath, or from <root>/.flatci/config.yaml
// when configPath is empty, then applies FLATCI_* environment variables.
// A missing default config file is not an error.
func Load(configPath, root string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(root, ".flatci"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("jobs", defaultJobs)
	v.SetDefault("state_dir", "")
	v.SetDefault("package_manager", "mamba")
	v.SetDefault("cleanup", defaultCleanup)

	v.SetDefault("parallelism.workers", 0)
	v.SetDefault("parallelism.make_jobs", 2)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_insecure", false)
	v.SetDefault("telemetry.metrics_file", "")

	v.SetDefault("history.enabled", true)
}

func validate(cfg *Config) error {
	if cfg.Jobs < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidJobs, cfg.Jobs)
	}
	if cfg.Parallelism.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, cfg.Parallelism.Workers)
	}
	if cfg.Parallelism.MakeJobs < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidMakeJobs, cfg.Parallelism.MakeJobs)
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.Logging.Format)
	}
	return nil
}
