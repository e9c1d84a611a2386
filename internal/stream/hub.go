// Package stream pushes refresh snapshots to connected dashboard clients
// over WebSocket so open pages see new market data without re-polling.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stockpulse/dashboard-engine/internal/metrics"
)

// Message is a JSON envelope sent to WebSocket clients.
type Message struct {
	Type      string    `json:"type"` // indices_update, sectors_update, news_update, quote_update
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	pingInterval = 30 * time.Second
	readDeadline = 60 * time.Second
)

// client wraps a connection with a write mutex. The broadcast loop and the
// per-connection ping goroutine share the connection; gorilla/websocket
// forbids concurrent writers, so every write goes through write.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// Hub manages WebSocket connections and broadcasts snapshot updates to all
// connected clients.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))
			slog.Info("ws client connected", "total", total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if err := c.write(websocket.TextMessage, msg); err != nil {
					c.conn.Close()
					delete(h.clients, c)
				}
			}
			metrics.WebSocketClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a typed snapshot update to all connected clients.
func (h *Hub) Broadcast(msgType string, data any) {
	payload, err := json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		// Drop if the buffer is full so refresh loops never block on slow
		// clients.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // the dashboard frontend is served cross-origin
	},
}

// HandleWS handles WebSocket upgrade requests.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn}
	h.register <- c

	// Read pump: keep the connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- c }()
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(readDeadline))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker to keep the connection alive through proxies.
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[c]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()
}
