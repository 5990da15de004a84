// Package events pushes the chat store's state-change notifications to
// WebSocket subscribers. The store is the single source of truth; every
// mutation it applies is immediately fanned out here so all consumers
// re-render from the same state.
package events

import (
	"context"
	"log/slog"

	"gemini-chat/internal/observability"
)

// Hub maintains active subscribers and fans events out to them
type Hub struct {
	// Registered subscribers
	clients map[*Client]bool

	// Broadcast channel
	broadcast chan []byte

	// Register client
	register chan *Client

	// Unregister client
	unregister chan *Client

	// Shutdown signal
	done chan struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			slog.Info("events hub shutting down gracefully")
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = true
			observability.EventClientsActive.Inc()
			slog.Info("event subscriber registered",
				slog.String("user_id", client.userID))

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Subscriber's send buffer is full, drop it
					h.closeClientSend(client)
					delete(h.clients, client)
					observability.EventClientsActive.Dec()
				}
			}
		}
	}
}

// unregisterClient safely removes a subscriber from the hub
func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		h.closeClientSend(client)
		observability.EventClientsActive.Dec()
		slog.Info("event subscriber unregistered",
			slog.String("user_id", client.userID))
	}
}

// closeClientSend safely closes a subscriber's send channel
func (h *Hub) closeClientSend(client *Client) {
	select {
	case <-client.send:
		// Channel already closed
	default:
		close(client.send)
	}
}

// shutdown performs graceful cleanup of all connections
func (h *Hub) shutdown() {
	close(h.done)

	for client := range h.clients {
		h.closeClientSend(client)
		slog.Info("closed event subscriber connection",
			slog.String("user_id", client.userID))
	}

	slog.Info("events hub shutdown complete")
}

// Broadcast sends an event payload to all subscribers. It satisfies the
// chat store's Broadcaster interface.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
		// Hub stopped, drop the event
	}
}

// Register registers a subscriber with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a subscriber from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
