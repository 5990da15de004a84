package domain

import "time"

// Sender identifies who authored a message. The set is closed: every
// message comes from the user or from the simulated assistant.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one turn in a room's conversation. Messages are immutable
// after creation and are removed only when their room is deleted. IDs are
// strictly orderable by creation order.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Image     string    `json:"image,omitempty"`
}
