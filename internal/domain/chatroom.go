package domain

import (
	"errors"
	"time"
)

var ErrRoomNotFound = errors.New("chatroom not found")

// ChatRoom is a named container for one conversation between the user and
// the simulated assistant. LastMessage and LastActivity are derived from
// the most recently sent message; MessageCount counts sent messages only,
// never paginated-in history.
type ChatRoom struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastMessage  string    `json:"lastMessage,omitempty"`
	LastActivity time.Time `json:"lastActivity"`
	MessageCount int       `json:"messageCount"`
}
