package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"gemini-chat/internal/domain"
)

// Blob names for the three persisted collections.
const (
	keyChatrooms = "chatrooms"
	keyMessages  = "messages"
	keyUser      = "user"
)

// Adapter persists the chat state as whole-snapshot JSON blobs. Loads
// never fail: a missing or corrupt blob degrades to empty state, and
// write errors are logged but not surfaced, matching the demo's
// "degrade to empty/no-op" failure policy.
type Adapter struct {
	kv KV
}

// NewAdapter creates a store adapter over the given KV
func NewAdapter(kv KV) *Adapter {
	return &Adapter{kv: kv}
}

// LoadRooms returns the persisted room list, empty if absent or corrupt
func (a *Adapter) LoadRooms(ctx context.Context) []domain.ChatRoom {
	data, err := a.kv.Get(ctx, keyChatrooms)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			slog.Warn("failed to load chatrooms blob", slog.String("error", err.Error()))
		}
		return []domain.ChatRoom{}
	}

	var rooms []domain.ChatRoom
	if err := json.Unmarshal(data, &rooms); err != nil {
		slog.Warn("corrupt chatrooms blob, starting empty", slog.String("error", err.Error()))
		return []domain.ChatRoom{}
	}
	if rooms == nil {
		rooms = []domain.ChatRoom{}
	}
	return rooms
}

// LoadMessages returns the persisted message map, empty if absent or corrupt
func (a *Adapter) LoadMessages(ctx context.Context) map[string][]domain.Message {
	data, err := a.kv.Get(ctx, keyMessages)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			slog.Warn("failed to load messages blob", slog.String("error", err.Error()))
		}
		return map[string][]domain.Message{}
	}

	var messages map[string][]domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		slog.Warn("corrupt messages blob, starting empty", slog.String("error", err.Error()))
		return map[string][]domain.Message{}
	}
	if messages == nil {
		messages = map[string][]domain.Message{}
	}
	return messages
}

// SaveRooms overwrites the room snapshot wholesale
func (a *Adapter) SaveRooms(ctx context.Context, rooms []domain.ChatRoom) error {
	data, err := json.Marshal(rooms)
	if err != nil {
		return err
	}
	return a.kv.Put(ctx, keyChatrooms, data)
}

// SaveMessages overwrites the message snapshot wholesale
func (a *Adapter) SaveMessages(ctx context.Context, messages map[string][]domain.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return a.kv.Put(ctx, keyMessages, data)
}

// LoadUser returns the persisted account, or nil when logged out
func (a *Adapter) LoadUser(ctx context.Context) *domain.User {
	data, err := a.kv.Get(ctx, keyUser)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			slog.Warn("failed to load user blob", slog.String("error", err.Error()))
		}
		return nil
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		slog.Warn("corrupt user blob, ignoring", slog.String("error", err.Error()))
		return nil
	}
	return &user
}

// SaveUser overwrites the persisted account
func (a *Adapter) SaveUser(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return a.kv.Put(ctx, keyUser, data)
}

// DeleteUser removes the persisted account
func (a *Adapter) DeleteUser(ctx context.Context) error {
	return a.kv.Delete(ctx, keyUser)
}

// Clear removes all persisted state (logout)
func (a *Adapter) Clear(ctx context.Context) error {
	return a.kv.Clear(ctx)
}
