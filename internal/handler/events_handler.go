package handler

import (
	"log/slog"
	"net/http"

	"gemini-chat/internal/events"
	"gemini-chat/internal/middleware"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development
		// In production, check against allowed origins
		return true
	},
}

// EventsHandler upgrades connections onto the chat event stream
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
	}
}

// HandleConnection handles WebSocket upgrade and subscription
func (h *EventsHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	// Get user ID from context (set by auth middleware)
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
		return
	}

	// Upgrade connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return
	}

	// Create subscriber
	client := events.NewClient(h.hub, conn, userID)

	// Register client with hub
	h.hub.Register(client)

	// Start client pumps
	go client.WritePump()
	go client.ReadPump()
}
