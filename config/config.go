package config

import (
	"fmt"
	"time"

	"github.com/pojeda/infomap/errors"
)

// Config is the complete application configuration
type Config struct {
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	NATS    NATSConfig    `json:"nats" yaml:"nats"`
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // text or json
}

// NATSConfig defines NATS connection settings. An empty URL disables the
// wire protocol and the engine runs purely in-process.
type NATSConfig struct {
	URL           string        `json:"url,omitempty" yaml:"url,omitempty"`
	Name          string        `json:"name,omitempty" yaml:"name,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// EngineConfig tunes the job host
type EngineConfig struct {
	Command       string `json:"command,omitempty" yaml:"command,omitempty"`
	Workers       int    `json:"workers,omitempty" yaml:"workers,omitempty"`
	QueueSize     int    `json:"queue_size,omitempty" yaml:"queue_size,omitempty"`
	SubjectPrefix string `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
	ResultBucket  string `json:"result_bucket,omitempty" yaml:"result_bucket,omitempty"`
	StoreResults  bool   `json:"store_results,omitempty" yaml:"store_results,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Port    int  `json:"port,omitempty" yaml:"port,omitempty"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		NATS: NATSConfig{
			Name:          "infomap",
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
			Timeout:       5 * time.Second,
		},
		Engine: EngineConfig{
			Command:       "infomap",
			Workers:       4,
			QueueSize:     64,
			SubjectPrefix: "infomap.jobs",
			ResultBucket:  "infomap-results",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

var logLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Logging.Level != "" && !logLevels[c.Logging.Level] {
		return c.invalid(fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	if c.Logging.Format != "" && c.Logging.Format != "text" && c.Logging.Format != "json" {
		return c.invalid(fmt.Errorf("unknown log format %q", c.Logging.Format))
	}
	if c.Engine.Workers < 0 {
		return c.invalid(fmt.Errorf("engine workers must not be negative, got %d", c.Engine.Workers))
	}
	if c.Engine.QueueSize < 0 {
		return c.invalid(fmt.Errorf("engine queue size must not be negative, got %d", c.Engine.QueueSize))
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return c.invalid(fmt.Errorf("metrics port %d out of range", c.Metrics.Port))
	}
	if c.NATS.ReconnectWait < 0 || c.NATS.Timeout < 0 {
		return c.invalid(fmt.Errorf("NATS durations must not be negative"))
	}
	return nil
}

func (c *Config) invalid(err error) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
		"Config", "Validate", "check values")
}
