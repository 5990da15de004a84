package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"gemini-chat/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID          string
	Phone       string
	CountryCode string
	Name        string
}

// NewTestUser creates a test user with sensible defaults
// Pass options to override specific fields
func NewTestUser(opts ...func(*UserOptions)) *domain.User {
	o := &UserOptions{
		ID:          nextID("user"),
		Phone:       fmt.Sprintf("55500%05d", idCounter.Load()),
		CountryCode: "+1",
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.User{
		ID:          o.ID,
		Phone:       o.Phone,
		CountryCode: o.CountryCode,
		Name:        o.Name,
	}
}

// User option functions

// WithUserID sets the user ID
func WithUserID(id string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.ID = id
	}
}

// WithPhone sets the phone number
func WithPhone(phone string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Phone = phone
	}
}

// WithCountryCode sets the dialing code
func WithCountryCode(code string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.CountryCode = code
	}
}

// WithName sets the display name
func WithName(name string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Name = name
	}
}

// SessionOptions allows customizing session fixture creation
type SessionOptions struct {
	ID        string
	UserID    string
	Token     string
	CSRFToken string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewTestSession creates a test session with sensible defaults
func NewTestSession(opts ...func(*SessionOptions)) *domain.Session {
	o := &SessionOptions{
		ID:        nextID("session"),
		UserID:    nextID("user"),
		Token:     nextID("token"),
		CSRFToken: nextID("csrf"),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Session{
		ID:        o.ID,
		UserID:    o.UserID,
		Token:     o.Token,
		CSRFToken: o.CSRFToken,
		ExpiresAt: o.ExpiresAt,
		CreatedAt: o.CreatedAt,
	}
}

// Session option functions

// WithSessionID sets the session ID
func WithSessionID(id string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ID = id
	}
}

// WithSessionUserID sets the user ID for the session
func WithSessionUserID(userID string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.UserID = userID
	}
}

// WithToken sets the session token
func WithToken(token string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.Token = token
	}
}

// WithCSRFToken sets the CSRF token
func WithCSRFToken(token string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.CSRFToken = token
	}
}

// WithExpiresAt sets the session expiration time
func WithExpiresAt(t time.Time) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ExpiresAt = t
	}
}

// WithExpired creates an expired session
func WithExpired() func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ExpiresAt = time.Now().Add(-1 * time.Hour)
	}
}

// RoomOptions allows customizing chat room fixture creation
type RoomOptions struct {
	ID           string
	Title        string
	LastMessage  string
	LastActivity time.Time
	MessageCount int
}

// NewTestRoom creates a test chat room with sensible defaults
func NewTestRoom(opts ...func(*RoomOptions)) domain.ChatRoom {
	o := &RoomOptions{
		ID:           nextID("room"),
		Title:        fmt.Sprintf("Test Room %d", idCounter.Load()),
		LastActivity: time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return domain.ChatRoom{
		ID:           o.ID,
		Title:        o.Title,
		LastMessage:  o.LastMessage,
		LastActivity: o.LastActivity,
		MessageCount: o.MessageCount,
	}
}

// Room option functions

// WithRoomID sets the room ID
func WithRoomID(id string) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.ID = id
	}
}

// WithTitle sets the room title
func WithTitle(title string) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.Title = title
	}
}

// WithLastMessage sets the room preview line
func WithLastMessage(preview string) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.LastMessage = preview
	}
}

// WithMessageCount sets the room message count
func WithMessageCount(count int) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.MessageCount = count
	}
}

// MessageOptions allows customizing message fixture creation
type MessageOptions struct {
	ID        string
	Content   string
	Sender    domain.Sender
	Timestamp time.Time
	Image     string
}

// NewTestMessage creates a test message with sensible defaults
func NewTestMessage(opts ...func(*MessageOptions)) domain.Message {
	o := &MessageOptions{
		ID:        nextID("msg"),
		Content:   "Hello, World!",
		Sender:    domain.SenderUser,
		Timestamp: time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return domain.Message{
		ID:        o.ID,
		Content:   o.Content,
		Sender:    o.Sender,
		Timestamp: o.Timestamp,
		Image:     o.Image,
	}
}

// Message option functions

// WithMessageID sets the message ID
func WithMessageID(id string) func(*MessageOptions) {
	return func(o *MessageOptions) {
		o.ID = id
	}
}

// WithContent sets the message content
func WithContent(content string) func(*MessageOptions) {
	return func(o *MessageOptions) {
		o.Content = content
	}
}

// WithSender sets the message sender
func WithSender(sender domain.Sender) func(*MessageOptions) {
	return func(o *MessageOptions) {
		o.Sender = sender
	}
}

// WithTimestamp sets the message timestamp
func WithTimestamp(t time.Time) func(*MessageOptions) {
	return func(o *MessageOptions) {
		o.Timestamp = t
	}
}

// WithImage sets the attached image data URL
func WithImage(image string) func(*MessageOptions) {
	return func(o *MessageOptions) {
		o.Image = image
	}
}

// Batch creation helpers

// NewTestMessages creates count messages with ascending timestamps,
// alternating sender starting with the user
func NewTestMessages(count int) []domain.Message {
	messages := make([]domain.Message, count)
	base := time.Now().Add(-time.Duration(count) * time.Minute)
	for i := 0; i < count; i++ {
		sender := domain.SenderUser
		if i%2 == 1 {
			sender = domain.SenderAI
		}
		messages[i] = NewTestMessage(
			WithContent(fmt.Sprintf("message %d", i)),
			WithSender(sender),
			WithTimestamp(base.Add(time.Duration(i)*time.Minute)),
		)
	}
	return messages
}

// ResetIDCounter resets the ID counter (useful for deterministic tests)
func ResetIDCounter() {
	idCounter.Store(0)
}
