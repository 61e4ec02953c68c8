package relay

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/artpar/liftoff/internal/core"
)

// Config holds the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8088", "127.0.0.1:0")
	ListenAddr string

	// MaxConns caps concurrent connections. Zero means unlimited.
	MaxConns int

	// Policy decides hasMore for empty pages.
	Policy core.HasMorePolicy

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// PingInterval is the keepalive period on event streams.
	PingInterval time.Duration

	Logger *log.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":8088",
		Policy:          core.PolicyEmptyFirstPageHasMore,
		ShutdownTimeout: 5 * time.Second,
		PingInterval:    30 * time.Second,
	}
}

// ConfigOption is a function that modifies the Config.
type ConfigOption func(*Config)

// WithListenAddr sets the listen address.
func WithListenAddr(addr string) ConfigOption {
	return func(c *Config) {
		c.ListenAddr = addr
	}
}

// WithMaxConns caps concurrent connections.
func WithMaxConns(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConns = n
	}
}

// WithPolicy sets the hasMore policy.
func WithPolicy(p core.HasMorePolicy) ConfigOption {
	return func(c *Config) {
		c.Policy = p
	}
}

// WithShutdownTimeout sets the graceful shutdown bound.
func WithShutdownTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.ShutdownTimeout = d
	}
}

// WithPingInterval sets the event stream keepalive period.
func WithPingInterval(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.PingInterval = d
	}
}

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = l
	}
}

// NewConfig creates a new Config with the given options applied to defaults.
func NewConfig(opts ...ConfigOption) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
