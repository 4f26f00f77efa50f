// Package realtime fans balance and status events out to dashboard viewers
// over websockets.
package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Frame is the envelope every viewer receives: an event name and the payload
// as published on the bus or by the ledger.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards are served from other origins; the original backend ran
	// with CORS open as well.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub tracks connected viewers and broadcasts frames to all of them.
// Broadcast never blocks the caller: a viewer whose send buffer is full is
// disconnected instead of slowing the ledger down.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades the request and registers the viewer until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()

		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("viewer connected", "remote", conn.RemoteAddr().String())

	go c.writePump()
	go c.readPump(func() {
		h.remove(c)
		slog.Info("viewer disconnected", "remote", conn.RemoteAddr().String())
	})
}

// Broadcast sends a frame to every connected viewer.
func (h *Hub) Broadcast(event string, data any) {
	msg, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		slog.Error("marshal frame", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if !c.trySend(msg) {
			// Buffer full; the viewer is too slow to keep.
			delete(h.clients, c)
			c.close()
		}
	}
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects all viewers and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}
