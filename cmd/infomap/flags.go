package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Load mode: parse a cluster file and print a summary
	LoadPath    string
	IncludeFlow bool
	RemapPath   string
	Level       int

	// Serve mode: run the job host over NATS
	Serve      bool
	HealthPort int

	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("INFOMAP_CONFIG", ""),
		"Path to configuration file, YAML or JSON (env: INFOMAP_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("INFOMAP_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: INFOMAP_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("INFOMAP_LOG_FORMAT", ""),
		"Log format: json, text (env: INFOMAP_LOG_FORMAT)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("INFOMAP_SHUTDOWN_TIMEOUT", 30*time.Second),
		"Graceful shutdown timeout (env: INFOMAP_SHUTDOWN_TIMEOUT)")

	flag.StringVar(&cfg.LoadPath, "load", "",
		"Load a .clu/.tree/.ftree file and print a summary")
	flag.BoolVar(&cfg.IncludeFlow, "flow", false,
		"Retain per-node flow values while loading")
	flag.StringVar(&cfg.RemapPath, "multilayer-map", "",
		"JSON file mapping layer ids to nodeId->stateId tables; enables multilayer mode")
	flag.IntVar(&cfg.Level, "level", 1,
		"Hierarchy level for module assignments in load summaries")

	flag.BoolVar(&cfg.Serve, "serve", false,
		"Run the clustering job host")
	flag.IntVar(&cfg.HealthPort, "health-port",
		getEnvInt("INFOMAP_HEALTH_PORT", 8080),
		"Health check port, 0 to disable (env: INFOMAP_HEALTH_PORT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = printHelp
	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if !cfg.Serve && cfg.LoadPath == "" && !cfg.Validate {
		return fmt.Errorf("nothing to do: pass -load, -serve or -validate")
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if cfg.Level < 1 {
		return fmt.Errorf("level must be at least 1, got %d", cfg.Level)
	}

	if cfg.HealthPort < 0 || cfg.HealthPort > 65535 {
		return fmt.Errorf("invalid health port: %d", cfg.HealthPort)
	}

	return nil
}

func printHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - network clustering result loader and job host

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Summarize a hierarchical result with flow values
  %s -load result.tree -flow

  # Load a multilayer result
  %s -load result.tree -multilayer-map layers.json

  # Run the job host against NATS
  %s -serve -config /etc/infomap/config.yaml

Version: %s
`, os.Args[0], os.Args[0], os.Args[0], Version)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
