package relay

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Event is pushed to favorites event stream clients.
type Event struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// EventTypeFavorites marks a favorites count change.
const EventTypeFavorites = "favorites"

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleFavoriteEvents upgrades to a websocket and pushes the favorites
// count on connect and after every change.
func (h *Handler) HandleFavoriteEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("event stream upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	changes, cancel := h.favorites.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	// The read loop only exists to notice the client going away.
	go func() {
		defer stop()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	items, err := h.favorites.List(ctx)
	if err != nil {
		h.logger.Error("list favorites failed", "err", err)
		return
	}
	if err := writeEvent(conn, Event{Type: EventTypeFavorites, Count: len(items)}); err != nil {
		return
	}

	ping := time.NewTicker(h.config.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := writeEvent(conn, Event{Type: EventTypeFavorites, Count: c.Count}); err != nil {
				h.logger.Debug("event stream write failed", "err", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
