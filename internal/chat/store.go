// Package chat holds the in-process authoritative state of chatrooms and
// their message lists. Every mutation funnels through one mutex, is
// persisted wholesale through the storage adapter, and is announced to
// subscribed consumers as a state-change event. "Async" operations are
// timers standing in for API round trips; there is no real backend.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"gemini-chat/internal/domain"
	"gemini-chat/internal/observability"
	"gemini-chat/internal/storage"
)

const (
	historyBatchSize   = 10
	historyStepSeconds = 60
	previewLimit       = 50
)

// ResponseGenerator produces the simulated assistant's reply text
type ResponseGenerator interface {
	Generate(userText string) string
}

// Delays are the simulated latencies of the demo's async operations.
// Reply delay is drawn uniformly from [ReplyMin, ReplyMax).
type Delays struct {
	CreateRoom time.Duration
	ReplyMin   time.Duration
	ReplyMax   time.Duration
	LoadMore   time.Duration
}

// DefaultDelays returns the stock simulated latencies
func DefaultDelays() Delays {
	return Delays{
		CreateRoom: 500 * time.Millisecond,
		ReplyMin:   2 * time.Second,
		ReplyMax:   4 * time.Second,
		LoadMore:   time.Second,
	}
}

// pendingOp tracks one scheduled timer so room deletion can cancel it
type pendingOp struct {
	timer   *time.Timer
	isReply bool
}

// Store is the single in-process authority for rooms and messages
type Store struct {
	mu       sync.Mutex
	rooms    []domain.ChatRoom // most-recent-first
	messages map[string][]domain.Message
	typing   map[string]bool
	pending  map[string]map[*pendingOp]struct{}
	seq      uint64

	adapter  *storage.Adapter
	gen      ResponseGenerator
	notifier Broadcaster
	delays   Delays
	rng      *rand.Rand
	now      func() time.Time
}

// NewStore creates an empty store. Call Load to hydrate it from the
// adapter's last snapshot. notifier may be nil.
func NewStore(adapter *storage.Adapter, gen ResponseGenerator, notifier Broadcaster, delays Delays) *Store {
	return &Store{
		messages: make(map[string][]domain.Message),
		typing:   make(map[string]bool),
		pending:  make(map[string]map[*pendingOp]struct{}),
		adapter:  adapter,
		gen:      gen,
		notifier: notifier,
		delays:   delays,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Load hydrates the store from the persisted snapshot. Missing or
// corrupt blobs yield empty state.
func (s *Store) Load(ctx context.Context) {
	rooms := s.adapter.LoadRooms(ctx)
	messages := s.adapter.LoadMessages(ctx)

	s.mu.Lock()
	s.rooms = rooms
	s.messages = messages
	s.mu.Unlock()

	observability.ChatroomsActive.Set(float64(len(rooms)))
	slog.Info("chat state loaded",
		slog.Int("rooms", len(rooms)),
		slog.Int("conversations", len(messages)))
}

// CreateRoom constructs a new room with an empty message list and
// inserts it at the front of the room list. The simulated API round
// trip completes before the insert; the returned id is valid once the
// call resolves.
func (s *Store) CreateRoom(ctx context.Context, title string) (string, error) {
	select {
	case <-time.After(s.delays.CreateRoom):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	room := domain.ChatRoom{
		ID:           uuid.New().String(),
		Title:        title,
		LastActivity: s.now(),
	}

	s.mu.Lock()
	s.rooms = append([]domain.ChatRoom{room}, s.rooms...)
	s.messages[room.ID] = []domain.Message{}
	s.persistLocked(ctx)
	s.mu.Unlock()

	observability.ChatroomsActive.Inc()
	s.emit(Event{Type: EventRoomCreated, RoomID: room.ID, Room: &room})
	slog.Info("chatroom created", slog.String("room_id", room.ID), slog.String("title", title))

	return room.ID, nil
}

// DeleteRoom removes the room and its message list. Unknown ids are a
// silent no-op. Any in-flight reply or pagination timer for the room is
// cancelled so a deleted room cannot be resurrected by a late callback.
func (s *Store) DeleteRoom(id string) {
	s.mu.Lock()
	idx := s.roomIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		slog.Debug("delete ignored, unknown chatroom", slog.String("room_id", id))
		return
	}

	title := s.rooms[idx].Title
	s.rooms = append(s.rooms[:idx], s.rooms[idx+1:]...)
	delete(s.messages, id)
	delete(s.typing, id)

	// A timer that already fired decrements the gauge in its own
	// callback; only stopped timers are settled here.
	for op := range s.pending[id] {
		if op.timer.Stop() && op.isReply {
			observability.RepliesPending.Dec()
		}
	}
	delete(s.pending, id)

	s.persistLocked(context.Background())
	s.mu.Unlock()

	observability.ChatroomsActive.Dec()
	s.emit(Event{Type: EventRoomDeleted, RoomID: id})
	slog.Info("chatroom deleted", slog.String("room_id", id), slog.String("title", title))
}

// SendMessage appends a user message and schedules the simulated AI
// reply. A message with whitespace-only content and no image is a
// silent no-op, as is an unknown room id.
func (s *Store) SendMessage(roomID, content, image string) {
	if strings.TrimSpace(content) == "" && image == "" {
		return
	}

	s.mu.Lock()
	idx := s.roomIndexLocked(roomID)
	if idx < 0 {
		s.mu.Unlock()
		slog.Debug("send ignored, unknown chatroom", slog.String("room_id", roomID))
		return
	}

	msg := domain.Message{
		ID:        s.nextMessageIDLocked(),
		Content:   content,
		Sender:    domain.SenderUser,
		Timestamp: s.now(),
		Image:     image,
	}
	s.messages[roomID] = append(s.messages[roomID], msg)

	room := &s.rooms[idx]
	room.LastMessage = content
	room.LastActivity = msg.Timestamp
	room.MessageCount++

	s.typing[roomID] = true
	s.scheduleLocked(roomID, true, s.replyDelayLocked(), func(op *pendingOp) {
		s.finishReply(roomID, content, op)
	})
	observability.RepliesPending.Inc()

	s.persistLocked(context.Background())
	s.mu.Unlock()

	observability.MessagesTotal.WithLabelValues(string(domain.SenderUser)).Inc()
	s.emit(Event{Type: EventMessage, RoomID: roomID, Message: &msg})
	s.emitTyping(roomID, true)
}

// finishReply runs when the reply timer fires. It applies the append
// against the room's state at callback time; if the room was deleted
// during the delay, nothing happens.
func (s *Store) finishReply(roomID, userText string, op *pendingOp) {
	s.mu.Lock()
	s.removePendingLocked(roomID, op)
	observability.RepliesPending.Dec()

	idx := s.roomIndexLocked(roomID)
	if idx < 0 {
		s.mu.Unlock()
		slog.Debug("reply dropped, chatroom deleted", slog.String("room_id", roomID))
		return
	}

	content := s.gen.Generate(userText)
	msg := domain.Message{
		ID:        s.nextMessageIDLocked(),
		Content:   content,
		Sender:    domain.SenderAI,
		Timestamp: s.now(),
	}
	s.messages[roomID] = append(s.messages[roomID], msg)

	room := &s.rooms[idx]
	room.LastMessage = previewAI(content)
	room.LastActivity = msg.Timestamp
	room.MessageCount++

	delete(s.typing, roomID)
	s.persistLocked(context.Background())
	s.mu.Unlock()

	observability.MessagesTotal.WithLabelValues(string(domain.SenderAI)).Inc()
	s.emit(Event{Type: EventMessage, RoomID: roomID, Message: &msg})
	s.emitTyping(roomID, false)
}

// LoadMoreMessages schedules a history backfill: after the pagination
// delay, ten synthesized messages are prepended before the currently
// oldest message. Backfill is not activity, so messageCount,
// lastMessage and lastActivity stay untouched.
func (s *Store) LoadMoreMessages(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roomIndexLocked(roomID) < 0 {
		slog.Debug("load-more ignored, unknown chatroom", slog.String("room_id", roomID))
		return
	}

	s.scheduleLocked(roomID, false, s.delays.LoadMore, func(op *pendingOp) {
		s.finishLoadMore(roomID, op)
	})
}

func (s *Store) finishLoadMore(roomID string, op *pendingOp) {
	s.mu.Lock()
	s.removePendingLocked(roomID, op)

	if s.roomIndexLocked(roomID) < 0 {
		s.mu.Unlock()
		slog.Debug("backfill dropped, chatroom deleted", slog.String("room_id", roomID))
		return
	}

	current := s.messages[roomID]
	base := s.now()

	// Oldest-first within the batch, every entry strictly before the
	// previously-oldest message: ages count backward in 60 s steps from
	// now, offset by the number of messages already held.
	older := make([]domain.Message, historyBatchSize)
	for i := 0; i < historyBatchSize; i++ {
		sender := domain.SenderUser
		if i%2 != 0 {
			sender = domain.SenderAI
		}
		age := time.Duration(len(current)+historyBatchSize-i) * historyStepSeconds * time.Second
		older[i] = domain.Message{
			ID:        s.nextMessageIDLocked(),
			Content:   fmt.Sprintf("This is an older message #%d. It contains some historical conversation data that was previously exchanged.", i+1),
			Sender:    sender,
			Timestamp: base.Add(-age),
		}
	}

	s.messages[roomID] = append(older, current...)
	s.persistLocked(context.Background())
	s.mu.Unlock()

	s.emit(Event{Type: EventHistoryLoaded, RoomID: roomID, Messages: older})
	slog.Debug("history backfilled",
		slog.String("room_id", roomID),
		slog.Int("count", historyBatchSize))
}

// Rooms returns a snapshot of the room list, most recent first
func (s *Store) Rooms() []domain.ChatRoom {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatRoom, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Room returns a snapshot of one room
func (s *Store) Room(id string) (domain.ChatRoom, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.roomIndexLocked(id)
	if idx < 0 {
		return domain.ChatRoom{}, false
	}
	return s.rooms[idx], true
}

// Messages returns a snapshot of a room's message sequence in insertion
// order, or nil for an unknown room.
func (s *Store) Messages(roomID string) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.messages[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}

// IsTyping reports whether a simulated reply is pending for the room
func (s *Store) IsTyping(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing[roomID]
}

// Reset drops all in-memory and persisted state (logout). Pending
// timers are cancelled.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	for roomID, ops := range s.pending {
		for op := range ops {
			if op.timer.Stop() && op.isReply {
				observability.RepliesPending.Dec()
			}
		}
		delete(s.pending, roomID)
	}
	s.rooms = []domain.ChatRoom{}
	s.messages = make(map[string][]domain.Message)
	s.typing = make(map[string]bool)

	if err := s.adapter.Clear(ctx); err != nil {
		slog.Error("failed to clear persisted state", slog.String("error", err.Error()))
	}
	s.mu.Unlock()

	observability.ChatroomsActive.Set(0)
	s.emit(Event{Type: EventReset})
	slog.Info("chat state reset")
}

func (s *Store) roomIndexLocked(id string) int {
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return i
		}
	}
	return -1
}

// nextMessageIDLocked returns an id strictly orderable by creation
// order: wall-clock millis plus a process-wide sequence number.
func (s *Store) nextMessageIDLocked() string {
	s.seq++
	return fmt.Sprintf("%d-%06d", s.now().UnixMilli(), s.seq)
}

func (s *Store) replyDelayLocked() time.Duration {
	delay := s.delays.ReplyMin
	if span := s.delays.ReplyMax - s.delays.ReplyMin; span > 0 {
		delay += time.Duration(s.rng.Int63n(int64(span)))
	}
	return delay
}

func (s *Store) scheduleLocked(roomID string, isReply bool, delay time.Duration, fn func(*pendingOp)) {
	op := &pendingOp{isReply: isReply}
	op.timer = time.AfterFunc(delay, func() { fn(op) })
	if s.pending[roomID] == nil {
		s.pending[roomID] = make(map[*pendingOp]struct{})
	}
	s.pending[roomID][op] = struct{}{}
}

func (s *Store) removePendingLocked(roomID string, op *pendingOp) {
	if ops, ok := s.pending[roomID]; ok {
		delete(ops, op)
		if len(ops) == 0 {
			delete(s.pending, roomID)
		}
	}
}

// persistLocked re-saves both collections wholesale. Persistence
// failures are logged, never surfaced: the in-memory state stays
// authoritative for the session.
func (s *Store) persistLocked(ctx context.Context) {
	rooms := make([]domain.ChatRoom, len(s.rooms))
	copy(rooms, s.rooms)
	if err := s.adapter.SaveRooms(ctx, rooms); err != nil {
		slog.Error("failed to persist chatrooms", slog.String("error", err.Error()))
	}
	if err := s.adapter.SaveMessages(ctx, s.messages); err != nil {
		slog.Error("failed to persist messages", slog.String("error", err.Error()))
	}
}

func (s *Store) emit(ev Event) {
	if s.notifier == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal event",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()))
		return
	}
	s.notifier.Broadcast(data)
	observability.EventsSent.WithLabelValues(ev.Type).Inc()
}

func (s *Store) emitTyping(roomID string, typing bool) {
	s.emit(Event{Type: EventTyping, RoomID: roomID, IsTyping: &typing})
}

// previewAI truncates simulated reply text for the room's lastMessage
// preview: the first 50 runes plus an ellipsis.
func previewAI(content string) string {
	if utf8.RuneCountInString(content) <= previewLimit {
		return content + "..."
	}
	runes := []rune(content)
	return string(runes[:previewLimit]) + "..."
}
