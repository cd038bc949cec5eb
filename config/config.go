// Package config provides configuration management for Signalcast.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for Signalcast.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Dispatch is the signal dispatch configuration.
	Dispatch DispatchConfig `mapstructure:"dispatch"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the dispatch tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// DispatchConfig holds signal dispatch settings.
type DispatchConfig struct {
	// RestartPolicy is applied when a dispatch is requested while another is
	// in flight on the same signal (reject, reset).
	RestartPolicy string `mapstructure:"restart_policy" validate:"restart_policy"`

	// MisuseLogInterval is the minimum interval between in-flight misuse
	// warnings per signal. Zero disables throttling.
	MisuseLogInterval time.Duration `mapstructure:"misuse_log_interval" validate:"min=0"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds dispatch tracing settings.
type TracingConfig struct {
	// Enabled enables OpenTelemetry tracing.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter (otlp).
	Exporter string `mapstructure:"exporter" validate:"omitempty,oneof=otlp"`

	// Endpoint is the collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Sampler selects the sampling strategy (ratio, always_on, always_off).
	Sampler string `mapstructure:"sampler" validate:"omitempty,oneof=ratio always_on always_off"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`

	// Timeout is the exporter timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are additional headers sent to the collector.
	Headers map[string]string `mapstructure:"headers"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Env: %s, Dispatch: %s}",
		c.App.Name, c.App.Environment, c.Dispatch.RestartPolicy)
}
