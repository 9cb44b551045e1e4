package natsclient

import (
	"errors"
	"log/slog"
	"time"

	"github.com/pojeda/infomap/metric"
)

// Option is a functional option for configuring the Client
type Option func(*Client) error

// WithName sets the connection name reported to the NATS server
func WithName(name string) Option {
	return func(c *Client) error {
		if name == "" {
			return errors.New("connection name cannot be empty")
		}
		c.name = name
		return nil
	}
}

// WithLogger sets the structured logger used for connection events
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMaxReconnects sets the maximum number of reconnection attempts (-1 for infinite)
func WithMaxReconnects(max int) Option {
	return func(c *Client) error {
		c.maxReconnects = max
		return nil
	}
}

// WithReconnectWait sets the wait time between reconnection attempts
func WithReconnectWait(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("reconnect wait must be positive")
		}
		c.reconnectWait = d
		return nil
	}
}

// WithTimeout sets the connection timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithDrainTimeout sets the drain timeout used on Close
func WithDrainTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("drain timeout must be positive")
		}
		c.drainTimeout = d
		return nil
	}
}

// WithMetricsRegistry wires connection state into the framework's core metrics
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(c *Client) error {
		if registry == nil {
			return errors.New("metrics registry cannot be nil")
		}
		c.metrics = &metricsHook{core: registry.CoreMetrics()}
		return nil
	}
}

// metricsHook guards core metric updates behind a nil check so metrics stay
// opt-in (nil hook = no metrics).
type metricsHook struct {
	core *metric.Metrics
}

func (h *metricsHook) setConnected(connected bool) {
	if h == nil {
		return
	}
	if connected {
		h.core.NATSConnected.Set(1)
	} else {
		h.core.NATSConnected.Set(0)
	}
}

func (h *metricsHook) addReconnect() {
	if h == nil {
		return
	}
	h.core.NATSReconnects.Inc()
}
