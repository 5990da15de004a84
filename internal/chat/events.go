package chat

import "gemini-chat/internal/domain"

// Event types emitted on every externally visible state change.
const (
	EventRoomCreated   = "room_created"
	EventRoomDeleted   = "room_deleted"
	EventMessage       = "message"
	EventTyping        = "typing"
	EventHistoryLoaded = "history_loaded"
	EventReset         = "reset"
)

// Event is the payload pushed to subscribed consumers. Exactly one of
// Room, Message or Messages is set depending on Type.
type Event struct {
	Type     string           `json:"type"`
	RoomID   string           `json:"roomId,omitempty"`
	Room     *domain.ChatRoom `json:"room,omitempty"`
	Message  *domain.Message  `json:"message,omitempty"`
	Messages []domain.Message `json:"messages,omitempty"`
	IsTyping *bool            `json:"isTyping,omitempty"`
}

// Broadcaster delivers serialized events to all subscribed consumers.
// The events hub implements it; a nil broadcaster disables notification.
type Broadcaster interface {
	Broadcast(message []byte)
}
