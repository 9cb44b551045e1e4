package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not component-specific)
type Metrics struct {
	// Cluster data loading
	LoadsTotal    *prometheus.CounterVec
	LoadDuration  *prometheus.HistogramVec
	LinesParsed   *prometheus.CounterVec
	LinesFiltered *prometheus.CounterVec

	// Engine jobs
	JobsTotal   *prometheus.CounterVec
	JobsActive  prometheus.Gauge
	JobDuration prometheus.Histogram

	// Errors
	ErrorsTotal *prometheus.CounterVec

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "infomap",
				Subsystem: "loader",
				Name:      "loads_total",
				Help:      "Total cluster data loads by format and status",
			},
			[]string{"format", "status"},
		),

		LoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "infomap",
				Subsystem: "loader",
				Name:      "load_duration_seconds",
				Help:      "Cluster data load duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"format"},
		),

		LinesParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "infomap",
				Subsystem: "loader",
				Name:      "lines_parsed_total",
				Help:      "Total data lines parsed by format",
			},
			[]string{"format"},
		),

		LinesFiltered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "infomap",
				Subsystem: "loader",
				Name:      "lines_filtered_total",
				Help:      "Data lines discarded by multilayer remap misses",
			},
			[]string{"format"},
		),

		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "infomap",
				Subsystem: "engine",
				Name:      "jobs_total",
				Help:      "Total engine jobs by terminal status",
			},
			[]string{"status"},
		),

		JobsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "infomap",
				Subsystem: "engine",
				Name:      "jobs_active",
				Help:      "Engine jobs currently running",
			},
		),

		JobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "infomap",
				Subsystem: "engine",
				Name:      "job_duration_seconds",
				Help:      "Engine job duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "infomap",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by component and class",
			},
			[]string{"component", "class"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "infomap",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "infomap",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total NATS reconnections",
			},
		),
	}
}
