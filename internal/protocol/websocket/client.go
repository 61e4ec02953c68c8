// Package websocket subscribes to the relay's favorites event stream.
package websocket

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// EventsPath is the relay route serving favorites events.
const EventsPath = "/api/favorites/events"

// Config holds WebSocket client configuration.
type Config struct {
	// ConnectTimeout is the timeout for establishing a connection.
	ConnectTimeout time.Duration

	// PongTimeout is how long the connection may stay silent. The relay
	// pings well within it. 0 disables the deadline.
	PongTimeout time.Duration

	// MaxMessageSize is the maximum size of a message in bytes.
	MaxMessageSize int64
}

// DefaultConfig returns the default WebSocket client configuration.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout: 30 * time.Second,
		PongTimeout:    90 * time.Second,
		MaxMessageSize: 64 * 1024,
	}
}

// EventsURL turns a relay base URL into its event stream endpoint.
func EventsURL(relayURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(relayURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid relay url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid relay url %q: unsupported scheme", relayURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid relay url %q: missing host", relayURL)
	}
	u.Path += EventsPath
	return u.String(), nil
}
