// Package main implements the infomap command line tool: a loader for
// network clustering results and a NATS-backed clustering job host.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/pojeda/infomap/clustermap"
	"github.com/pojeda/infomap/config"
	"github.com/pojeda/infomap/engine"
	"github.com/pojeda/infomap/health"
	"github.com/pojeda/infomap/hierarchy"
	"github.com/pojeda/infomap/metric"
	"github.com/pojeda/infomap/natsclient"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "infomap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}

	// CLI flags override the config file
	if cliCfg.LogLevel != "" {
		cfg.Logging.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Logging.Format = cliCfg.LogFormat
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		slog.Info("configuration is valid", "config_path", cliCfg.ConfigPath)
		return nil
	}

	if cliCfg.LoadPath != "" {
		return runLoad(cliCfg)
	}
	return runServe(cliCfg, cfg, logger)
}

// runLoad parses one cluster file and prints a summary
func runLoad(cliCfg *CLIConfig) error {
	remap, err := loadRemap(cliCfg.RemapPath)
	if err != nil {
		return err
	}

	start := time.Now()
	cm, err := clustermap.ReadClusterData(cliCfg.LoadPath, cliCfg.IncludeFlow, remap)
	if err != nil {
		return err
	}

	slog.Info("cluster data loaded",
		"file", cliCfg.LoadPath,
		"format", cm.Extension,
		"lines", cm.Lines,
		"filtered", cm.Filtered,
		"duration", time.Since(start))

	fmt.Printf("format:       %s\n", cm.Extension)
	if cm.Header != "" {
		fmt.Printf("header:       %s\n", cm.Header)
	}
	fmt.Printf("lines:        %d\n", cm.Lines)
	if cm.Filtered > 0 {
		fmt.Printf("filtered:     %d\n", cm.Filtered)
	}

	if cm.Extension == "clu" {
		fmt.Printf("nodes:        %d\n", len(cm.Clusters))
		modules := make(map[uint64]bool)
		for _, id := range cm.Clusters {
			modules[id] = true
		}
		fmt.Printf("modules:      %d\n", len(modules))
	} else {
		fmt.Printf("nodes:        %d\n", len(cm.NodePaths))
		fmt.Printf("higher order: %v\n", cm.HigherOrder)

		tree, err := hierarchy.Build(cm.NodePaths)
		if err != nil {
			return err
		}
		fmt.Printf("depth:        %d\n", tree.Depth())
		fmt.Printf("top modules:  %d\n", tree.NumTopModules())
		fmt.Printf("leaf modules: %d\n", tree.NumLeafModules())

		assignments := tree.Assignments(cliCfg.Level)
		modules := make(map[uint64]bool)
		for _, id := range assignments {
			modules[id] = true
		}
		fmt.Printf("modules at level %d: %d\n", cliCfg.Level, len(modules))
	}

	if cliCfg.IncludeFlow {
		var total float64
		for _, flow := range cm.Flow {
			total += flow
		}
		fmt.Printf("total flow:   %g\n", total)
	}

	return nil
}

// loadRemap reads a multilayer mapping file: JSON with layer ids mapping
// node ids to state ids, all as strings
func loadRemap(path string) (clustermap.MultilayerMap, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read multilayer map: %w", err)
	}

	var raw map[string]map[string]uint64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse multilayer map: %w", err)
	}

	remap := make(clustermap.MultilayerMap, len(raw))
	for layerStr, nodes := range raw {
		layerID, err := strconv.ParseUint(layerStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("multilayer map: layer id %q: %w", layerStr, err)
		}
		layer := make(map[uint64]uint64, len(nodes))
		for nodeStr, stateID := range nodes {
			nodeID, err := strconv.ParseUint(nodeStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("multilayer map: node id %q: %w", nodeStr, err)
			}
			layer[nodeID] = stateID
		}
		remap[layerID] = layer
	}
	return remap, nil
}

// runServe runs the clustering job host until interrupted
func runServe(cliCfg *CLIConfig, cfg *config.Config, logger *slog.Logger) error {
	if cfg.NATS.URL == "" {
		return fmt.Errorf("serve mode requires a NATS URL in the configuration")
	}

	ctx := context.Background()

	registry := metric.NewMetricsRegistry()

	client, err := natsclient.New(cfg.NATS.URL,
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithLogger(logger),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
		natsclient.WithTimeout(cfg.NATS.Timeout),
		natsclient.WithMetricsRegistry(registry),
	)
	if err != nil {
		return err
	}
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close(ctx)

	hostOpts := []engine.HostOption{
		engine.WithNATS(client),
		engine.WithLogger(logger),
		engine.WithMetricsRegistry(registry),
		engine.WithWorkers(cfg.Engine.Workers, cfg.Engine.QueueSize),
		engine.WithSubjectPrefix(cfg.Engine.SubjectPrefix),
	}

	if cfg.Engine.StoreResults {
		store, err := engine.NewResultStore(ctx, client, cfg.Engine.ResultBucket)
		if err != nil {
			return err
		}
		hostOpts = append(hostOpts, engine.WithResultStore(store))
	}

	host, err := engine.NewHost(&engine.ExecRunner{Command: cfg.Engine.Command}, hostOpts...)
	if err != nil {
		return err
	}
	if err := host.Initialize(); err != nil {
		return err
	}
	if err := host.Start(ctx); err != nil {
		return err
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, "/metrics", registry)
		if err := metricsServer.Start(); err != nil {
			return err
		}
		slog.Info("metrics server started", "port", cfg.Metrics.Port)
	}

	var healthServer *health.Server
	stopHealth := make(chan struct{})
	if cliCfg.HealthPort > 0 {
		monitor := health.NewMonitor()
		monitor.Update(health.Healthy("engine", "running"))
		monitor.Update(health.Healthy("nats", "connected"))

		healthServer = health.NewServer(cliCfg.HealthPort, monitor)
		if err := healthServer.Start(); err != nil {
			return err
		}
		slog.Info("health server started", "port", cliCfg.HealthPort)

		go watchHealth(monitor, client, stopHealth)
	}

	slog.Info("job host running",
		"host_id", host.ID(),
		"subject_prefix", cfg.Engine.SubjectPrefix,
		"workers", cfg.Engine.Workers)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	close(stopHealth)
	if healthServer != nil {
		if err := healthServer.Stop(5 * time.Second); err != nil {
			slog.Warn("health server stop failed", "error", err)
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(5 * time.Second); err != nil {
			slog.Warn("metrics server stop failed", "error", err)
		}
	}
	return host.Stop(cliCfg.ShutdownTimeout)
}

// watchHealth keeps the NATS status current until stop is closed
func watchHealth(monitor *health.Monitor, client *natsclient.Client, stop <-chan struct{}) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if client.IsConnected() {
				monitor.Update(health.Healthy("nats", "connected"))
			} else {
				monitor.Update(health.Unhealthy("nats", "not connected"))
			}
		}
	}
}
