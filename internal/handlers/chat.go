package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/yeojun7429/portfolio-api/internal/chat"
	"github.com/yeojun7429/portfolio-api/internal/middleware"
	"github.com/yeojun7429/portfolio-api/internal/models"
)

// ChatHandler handles the shared chat feed
type ChatHandler struct {
	chatService *chat.Service
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *chat.Service) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/message", h.SendMessage).Methods("POST")
	r.HandleFunc("/stream", h.StreamMessages).Methods("GET")
}

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// SendMessage appends a message to the shared feed
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ChatMessageRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	msg, err := h.chatService.Send(r.Context(), user, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) || errors.Is(err, chat.ErrMessageTooLong) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to send message")
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}

// StreamMessages streams the feed over SSE: the full message list on
// connect and again after every append.
func (h *ChatHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Streaming not supported")
		return
	}

	// Set up SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	snapshots := make(chan []*models.Message, 8)
	sub, err := h.chatService.Subscribe(r.Context(), func(messages []*models.Message) {
		select {
		case snapshots <- messages:
		default:
			// Slow consumer; it will catch up with the next snapshot.
		}
	})
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to subscribe to chat feed")
		return
	}
	defer sub.Close()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case messages := <-snapshots:
			if err := writeSSE(w, "messages", map[string]any{
				"messages": messages,
				"count":    len(messages),
			}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
