package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"gemini-chat/internal/domain"

	"github.com/go-chi/chi/v5"
)

// ChatStore is the chat state surface used by the HTTP layer
type ChatStore interface {
	CreateRoom(ctx context.Context, title string) (string, error)
	DeleteRoom(id string)
	Rooms() []domain.ChatRoom
	Room(id string) (domain.ChatRoom, bool)
	Messages(roomID string) []domain.Message
	IsTyping(roomID string) bool
	SendMessage(roomID, content, image string)
	LoadMoreMessages(roomID string)
}

// ChatroomHandler handles chatroom endpoints
type ChatroomHandler struct {
	store ChatStore
}

// NewChatroomHandler creates a new chatroom handler
func NewChatroomHandler(store ChatStore) *ChatroomHandler {
	return &ChatroomHandler{
		store: store,
	}
}

// CreateChatroomRequest represents chatroom creation request
type CreateChatroomRequest struct {
	Title string `json:"title"`
}

// SendMessageRequest represents an outgoing user message
type SendMessageRequest struct {
	Content string `json:"content"`
	Image   string `json:"image"`
}

// MessagesResponse bundles a room's messages with its typing indicator
type MessagesResponse struct {
	Messages []domain.Message `json:"messages"`
	IsTyping bool             `json:"isTyping"`
}

// List retrieves all chatrooms, most recently created first
func (h *ChatroomHandler) List(w http.ResponseWriter, r *http.Request) {
	chatrooms := h.store.Rooms()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"chatrooms": chatrooms,
	})
}

// Create creates a new chatroom
func (h *ChatroomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateChatroomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len([]rune(title)) > 50 {
		http.Error(w, `{"error":"Title must be between 1 and 50 characters"}`, http.StatusBadRequest)
		return
	}

	id, err := h.store.CreateRoom(r.Context(), title)
	if err != nil {
		http.Error(w, `{"error":"Failed to create chatroom"}`, http.StatusInternalServerError)
		return
	}

	room, ok := h.store.Room(id)
	if !ok {
		http.Error(w, `{"error":"Failed to create chatroom"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

// Delete removes a chatroom and its messages. Deleting an unknown room
// is not an error.
func (h *ChatroomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chatroomID := chi.URLParam(r, "id")
	if chatroomID == "" {
		http.Error(w, `{"error":"Chatroom ID required"}`, http.StatusBadRequest)
		return
	}

	h.store.DeleteRoom(chatroomID)

	w.WriteHeader(http.StatusNoContent)
}

// GetMessages retrieves messages for a chatroom in chronological order
func (h *ChatroomHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	chatroomID := chi.URLParam(r, "id")
	if chatroomID == "" {
		http.Error(w, `{"error":"Chatroom ID required"}`, http.StatusBadRequest)
		return
	}

	if _, ok := h.store.Room(chatroomID); !ok {
		http.Error(w, `{"error":"Chatroom not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessagesResponse{
		Messages: h.store.Messages(chatroomID),
		IsTyping: h.store.IsTyping(chatroomID),
	})
}

// SendMessage accepts a user message. The appended message and the
// scheduled assistant reply are delivered over the event stream.
func (h *ChatroomHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatroomID := chi.URLParam(r, "id")
	if chatroomID == "" {
		http.Error(w, `{"error":"Chatroom ID required"}`, http.StatusBadRequest)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}

	h.store.SendMessage(chatroomID, req.Content, req.Image)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// LoadHistory schedules a batch of older messages for a room. The
// synthesized batch arrives over the event stream.
func (h *ChatroomHandler) LoadHistory(w http.ResponseWriter, r *http.Request) {
	chatroomID := chi.URLParam(r, "id")
	if chatroomID == "" {
		http.Error(w, `{"error":"Chatroom ID required"}`, http.StatusBadRequest)
		return
	}

	h.store.LoadMoreMessages(chatroomID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}
