package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Auyante/refineryiq-system/models"
)

// Hub maintains the set of connected dashboard clients and fans published
// results out to them. It implements the engine sink interface; a broadcast
// never blocks the scoring cycle — slow clients are dropped instead.
type Hub struct {
	lg         *slog.Logger
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub(lg *slog.Logger) *Hub {
	return &Hub{
		lg:         lg.With("component", "ws-hub"),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.lg.Info("client connected", "remote", client.conn.RemoteAddr())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.lg.Warn("client send buffer full, dropping connection",
						"remote", client.conn.RemoteAddr())
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Name() string { return "websocket" }

// PublishSnapshot pushes the new snapshot envelope to all clients.
func (h *Hub) PublishSnapshot(ctx context.Context, snap *models.Snapshot) error {
	return h.send("snapshot", snap)
}

// PublishAlert pushes a newly created alert to all clients.
func (h *Hub) PublishAlert(ctx context.Context, alert models.Alert) error {
	return h.send("alert", alert)
}

func (h *Hub) send(kind string, payload interface{}) error {
	message, err := json.Marshal(map[string]interface{}{"type": kind, "payload": payload})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- message:
		return nil
	default:
		// Hub loop stalled: drop rather than block the scoring cycle.
		h.lg.Warn("broadcast queue full, message dropped", "type", kind)
		return nil
	}
}
