// Package natsclient manages the NATS connection shared by the engine host
// and the result store, with reconnect handling and connection metrics.
package natsclient

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/pojeda/infomap/errors"
)

// ConnectionStatus represents the state of the NATS connection
type ConnectionStatus int

// Possible connection statuses
const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusClosed
)

// String returns the string representation of ConnectionStatus
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sentinel errors
var (
	ErrNotConnected = stderrors.New("not connected to NATS")
	ErrEmptyURL     = stderrors.New("NATS URL cannot be empty")
)

// Client manages a NATS connection and its JetStream context
type Client struct {
	url    string
	name   string
	logger *slog.Logger

	mu   sync.RWMutex
	conn *nats.Conn
	js   jetstream.JetStream

	status     atomic.Value // stores ConnectionStatus
	reconnects atomic.Int32

	// Connection options
	maxReconnects int
	reconnectWait time.Duration
	timeout       time.Duration
	drainTimeout  time.Duration

	metrics *metricsHook
}

// New creates a client for the given NATS URL. The connection is not
// established until Connect is called.
func New(url string, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(ErrEmptyURL, "Client", "New", "validate url")
	}

	c := &Client{
		url:           url,
		name:          "infomap",
		logger:        slog.Default(),
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
		timeout:       5 * time.Second,
		drainTimeout:  10 * time.Second,
	}
	c.status.Store(StatusDisconnected)

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, errors.WrapInvalid(err, "Client", "New", "apply option")
		}
	}

	return c, nil
}

// Connect establishes the NATS connection
func (c *Client) Connect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.conn.IsConnected() {
		return nil
	}

	c.status.Store(StatusConnecting)

	conn, err := nats.Connect(c.url,
		nats.Name(c.name),
		nats.Timeout(c.timeout),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.DrainTimeout(c.drainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.status.Store(StatusReconnecting)
			c.metrics.setConnected(false)
			c.logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.status.Store(StatusConnected)
			c.reconnects.Add(1)
			c.metrics.setConnected(true)
			c.metrics.addReconnect()
			c.logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			c.status.Store(StatusClosed)
			c.metrics.setConnected(false)
			c.logger.Info("NATS connection closed")
		}),
	)
	if err != nil {
		c.status.Store(StatusDisconnected)
		return errors.WrapTransient(err, "Client", "Connect", "connect to NATS")
	}

	c.conn = conn
	c.status.Store(StatusConnected)
	c.metrics.setConnected(true)
	c.logger.Info("NATS connected", "url", conn.ConnectedUrl())
	return nil
}

// Conn returns the underlying NATS connection, or nil before Connect.
func (c *Client) Conn() *nats.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

// JetStream returns the JetStream context, creating it on first use
func (c *Client) JetStream() (jetstream.JetStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "JetStream", "get connection")
	}
	if c.js != nil {
		return c.js, nil
	}

	js, err := jetstream.New(c.conn)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "JetStream", "create context")
	}
	c.js = js
	return js, nil
}

// Publish publishes data to a subject
func (c *Client) Publish(subject string, data []byte) error {
	conn := c.Conn()
	if conn == nil {
		return errors.WrapTransient(ErrNotConnected, "Client", "Publish", "get connection")
	}
	if err := conn.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "Client", "Publish", "publish message")
	}
	return nil
}

// Subscribe subscribes a handler to a subject
func (c *Client) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	conn := c.Conn()
	if conn == nil {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "Subscribe", "get connection")
	}
	sub, err := conn.Subscribe(subject, handler)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "Subscribe", "subscribe")
	}
	return sub, nil
}

// Request sends a request and waits for a reply within the context deadline
func (c *Client) Request(ctx context.Context, subject string, data []byte) (*nats.Msg, error) {
	conn := c.Conn()
	if conn == nil {
		return nil, errors.WrapTransient(ErrNotConnected, "Client", "Request", "get connection")
	}
	msg, err := conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "Request", "request reply")
	}
	return msg, nil
}

// Status returns the current connection status
func (c *Client) Status() ConnectionStatus {
	return c.status.Load().(ConnectionStatus)
}

// IsConnected reports whether the connection is currently up
func (c *Client) IsConnected() bool {
	conn := c.Conn()
	return conn != nil && conn.IsConnected()
}

// Reconnects returns the number of reconnections seen
func (c *Client) Reconnects() int32 {
	return c.reconnects.Load()
}

// Close drains and closes the connection
func (c *Client) Close(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("NATS drain failed, closing hard", "error", err)
		c.conn.Close()
	}
	c.conn = nil
	c.js = nil
	c.status.Store(StatusClosed)
	c.metrics.setConnected(false)
}
