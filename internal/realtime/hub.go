// Package realtime pushes request lifecycle events to connected users over
// WebSocket.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"eventmarket/internal/models"
)

const (
	readLimit     = 4 << 10
	readDeadline  = 120 * time.Second
	writeDeadline = 5 * time.Second
	pingInterval  = 15 * time.Second
	sendBuffer    = 16
	deliverBuffer = 64
)

type client struct {
	userID int
	conn   *websocket.Conn
	send   chan []byte
}

type delivery struct {
	userIDs []int
	payload []byte
}

// Hub tracks connections per user. Every mutation of the client set happens
// on the Run goroutine; the lock only serves readers such as Connected.
type Hub struct {
	mu      sync.RWMutex
	clients map[int]map[*client]struct{}

	register   chan *client
	unregister chan *client
	deliver    chan delivery
	done       chan struct{}

	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHub creates a hub. checkOrigin may be nil to allow same-origin only.
func NewHub(log zerolog.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		clients:    make(map[int]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		deliver:    make(chan delivery, deliverBuffer),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log.With().Str("component", "realtime").Logger(),
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.userID] == nil {
				h.clients[c.userID] = make(map[*client]struct{})
			}
			h.clients[c.userID][c] = struct{}{}
			h.mu.Unlock()
			h.log.Debug().Int("user_id", c.userID).Msg("ws register")

		case c := <-h.unregister:
			h.drop(c)

		case d := <-h.deliver:
			for _, uid := range d.userIDs {
				h.mu.RLock()
				targets := make([]*client, 0, len(h.clients[uid]))
				for c := range h.clients[uid] {
					targets = append(targets, c)
				}
				h.mu.RUnlock()
				for _, c := range targets {
					select {
					case c.send <- d.payload:
					default:
						h.log.Warn().Int("user_id", uid).Msg("ws client too slow, dropping")
						h.drop(c)
					}
				}
			}

		case <-ctx.Done():
			h.mu.Lock()
			for uid, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, uid)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	h.log.Debug().Int("user_id", c.userID).Msg("ws unregister")
}

// Connected returns the number of open connections for userID.
func (h *Hub) Connected(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify queues event for every connection of the given users. Events are
// dropped when the queue is full or the hub has stopped.
func (h *Hub) Notify(userIDs []int, event models.RequestEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Msg("encode ws event")
		return
	}
	select {
	case h.deliver <- delivery{userIDs: userIDs, payload: payload}:
	case <-h.done:
	default:
		h.log.Warn().Str("type", event.Type).Msg("ws delivery queue full, dropping event")
	}
}

// Serve upgrades the request and attaches the connection to userID.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		writeClose(conn, websocket.CloseGoingAway, "server shutting down")
		return conn.Close()
	}

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// readPump only services control frames; clients have nothing to say.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				writeClose(c.conn, websocket.CloseNormalClosure, "")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeDeadline),
	)
}
