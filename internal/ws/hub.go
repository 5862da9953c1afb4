package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"boilermon/internal/logger"
	"boilermon/internal/models"
)

// Per-client send buffer. A client that cannot keep up is disconnected
// rather than allowed to stall the hub.
const sendBufferSize = 16

// Envelope wraps every message pushed to dashboard clients.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub fans dispatched alerts out to connected dashboard clients. It is
// the in-process notification transport behind the alert consumer.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	clients    map[*Client]bool
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run owns the client set; all membership changes and broadcasts go
// through this single goroutine, so no locking is needed.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				c.close()
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.log.Infow("ws_client_connected", "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.close()
				h.log.Infow("ws_client_disconnected", "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client: drop it instead of blocking the hub.
					delete(h.clients, c)
					c.close()
				}
			}
		}
	}
}

// Notify implements the alert consumer's notifier: it pushes one
// dispatched event to every connected client without blocking the
// consumer loop.
func (h *Hub) Notify(ctx context.Context, evt models.AlertEvent) error {
	msg, err := json.Marshal(Envelope{Type: "alert", Data: evt})
	if err != nil {
		return fmt.Errorf("marshal alert envelope: %w", err)
	}
	select {
	case h.broadcast <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register hands a freshly upgraded connection to the hub and starts
// its read/write pumps.
func (h *Hub) Register(conn *websocket.Conn) {
	c := newClient(h, conn)
	h.register <- c
	go c.writePump()
	go c.readPump()
}
