package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/liftoff/internal/relay"
)

// eventServer pushes counts and then waits for the client to leave.
func eventServer(t *testing.T, counts ...int) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, n := range counts {
			if err := conn.WriteJSON(relay.Event{Type: relay.EventTypeFavorites, Count: n}); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestDial_Receive(t *testing.T) {
	server := eventServer(t, 1, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	ev, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, relay.Event{Type: relay.EventTypeFavorites, Count: 1}, ev)

	ev, err = conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, ev.Count)
}

func TestDial_Failure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/api/favorites/events", &Config{ConnectTimeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestConnection_Close(t *testing.T) {
	server := eventServer(t)

	conn, err := Dial(context.Background(), wsURL(server), nil)
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err = conn.Receive(context.Background())
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestConnection_ReceiveContext(t *testing.T) {
	server := eventServer(t)

	conn, err := Dial(context.Background(), wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = conn.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConnection_ServerGone(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}))
	defer server.Close()

	conn, err := Dial(context.Background(), wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = conn.Receive(ctx)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestEventsURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:8088", "ws://localhost:8088/api/favorites/events", false},
		{"https://relay.example.com/", "wss://relay.example.com/api/favorites/events", false},
		{"https://example.com/base", "wss://example.com/base/api/favorites/events", false},
		{"ws://localhost:8088", "ws://localhost:8088/api/favorites/events", false},
		{"ftp://localhost", "", true},
		{"http://", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := EventsURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
