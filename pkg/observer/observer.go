// Package observer republishes the outbound event surface of spec §6 over WebSocket, so the
// arbiter is usable without the desktop shell: any connected client receives every game-update,
// engine-stats, schedule-update and tournament-stats event as a JSON frame. Grounded on
// go-broker's Client/send-channel hub pattern.
package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/seekerror/logw"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Envelope wraps one outbound event with a Kind discriminator so a client can dispatch on a single
// JSON message type, matching spec §6's named event kinds.
type Envelope struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data"`
}

// Event kinds published over the feed.
const (
	KindGameUpdate       = "game-update"
	KindEngineStats      = "engine-stats"
	KindScheduleUpdate   = "schedule-update"
	KindTournamentStats  = "tournament-stats"
	KindToast            = "toast"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is a minimal WebSocket broadcast server: every Publish call fans its payload out to every
// currently connected client, dropping the message for any client whose send buffer is full rather
// than blocking the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

// NewHub constructs an empty Hub, ready to accept connections and publish events.
func NewHub() *Hub {
	return &Hub{clients: map[*client]bool{}}
}

// ServeHTTP upgrades the request to a WebSocket connection and registers it as a feed subscriber.
// The connection is read-only from the client's perspective; inbound frames are discarded, with
// only connection teardown (error or close) deregistering the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logw.Errorf(r.Context(), "observer: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.deregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer func() {
		_ = c.conn.Close()
	}()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.deregister(c)
			return
		}
	}
}

func (h *Hub) deregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish marshals kind/data into an Envelope and fans it out to every connected client. Slow
// clients have the frame dropped rather than stalling the publisher or other subscribers.
func (h *Hub) Publish(kind string, data interface{}) {
	payload, err := json.Marshal(Envelope{Kind: kind, Data: data})
	if err != nil {
		logw.Errorf(context.Background(), "observer: marshal %v: %v", kind, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			logw.Warnf(context.Background(), "observer: dropping %v frame for slow client", kind)
		}
	}
}

// ClientCount reports how many observers are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every connected client and releases its send channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
}
