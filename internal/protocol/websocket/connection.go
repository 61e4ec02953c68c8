package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/artpar/liftoff/internal/relay"
)

var (
	// ErrConnectionClosed is returned when the connection is closed.
	ErrConnectionClosed = errors.New("connection closed")
)

// Connection is an open favorites event stream.
type Connection struct {
	endpoint  string
	conn      *websocket.Conn
	config    *Config
	mu        sync.Mutex
	closed    bool
	closeChan chan struct{}
	events    chan relay.Event
	errChan   chan error
}

// Dial connects to endpoint and starts reading events.
func Dial(ctx context.Context, endpoint string, config *Config) (*Connection, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: config.ConnectTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}

	connectCtx := ctx
	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(connectCtx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if config.MaxMessageSize > 0 {
		conn.SetReadLimit(config.MaxMessageSize)
	}

	c := &Connection{
		endpoint:  endpoint,
		conn:      conn,
		config:    config,
		closeChan: make(chan struct{}),
		events:    make(chan relay.Event, 16),
		errChan:   make(chan error, 1),
	}
	c.setupPingPong()
	go c.readLoop()
	return c, nil
}

// Endpoint returns the connection endpoint.
func (c *Connection) Endpoint() string {
	return c.endpoint
}

// setupPingPong answers relay pings and extends the read deadline on each.
func (c *Connection) setupPingPong() {
	c.conn.SetPingHandler(func(appData string) error {
		c.extendDeadline()
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return nil
		}
		return c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})
}

func (c *Connection) extendDeadline() {
	if c.config.PongTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongTimeout))
	}
}

func (c *Connection) readLoop() {
	for {
		c.extendDeadline()

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = ErrConnectionClosed
			}
			c.fail(err)
			return
		}

		var ev relay.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.fail(fmt.Errorf("invalid event: %w", err))
			return
		}

		select {
		case c.events <- ev:
		case <-c.closeChan:
			return
		}
	}
}

func (c *Connection) fail(err error) {
	select {
	case <-c.closeChan:
		return
	default:
	}
	select {
	case c.errChan <- err:
	default:
	}
}

// Receive blocks for the next event.
func (c *Connection) Receive(ctx context.Context) (relay.Event, error) {
	select {
	case <-c.closeChan:
		return relay.Event{}, ErrConnectionClosed
	default:
	}

	select {
	case <-ctx.Done():
		return relay.Event{}, ctx.Err()
	case <-c.closeChan:
		return relay.Event{}, ErrConnectionClosed
	case ev := <-c.events:
		return ev, nil
	case err := <-c.errChan:
		return relay.Event{}, err
	}
}

// Close closes the connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closeChan)

	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return c.conn.Close()
}
