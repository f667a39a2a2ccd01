package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/yeojun7429/portfolio-api/internal/listsync"
	"github.com/yeojun7429/portfolio-api/internal/middleware"
	"github.com/yeojun7429/portfolio-api/internal/models"
	"github.com/yeojun7429/portfolio-api/internal/validation"
)

// ItemHandler handles to-do item requests. Each authenticated user is
// served by their own synchronizer, so reads come from the live local
// list rather than ad-hoc queries.
type ItemHandler struct {
	manager *listsync.Manager
}

// NewItemHandler creates a new item handler
func NewItemHandler(manager *listsync.Manager) *ItemHandler {
	return &ItemHandler{manager: manager}
}

// RegisterRoutes registers item routes on the given router
// The router should already have the /items prefix (e.g., from apiRouter.PathPrefix("/items"))
func (h *ItemHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListItems).Methods("GET")
	r.HandleFunc("", h.CreateItem).Methods("POST")
	r.HandleFunc("/stream", h.StreamItems).Methods("GET")
	r.HandleFunc("/{id}/toggle", h.ToggleItem).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteItem).Methods("DELETE")
}

// CreateItemRequest represents a create item request. Date and Time are
// optional but must be filled together.
type CreateItemRequest struct {
	Label string `json:"label" validate:"required,max=1000"`
	Date  string `json:"date,omitempty"`
	Time  string `json:"time,omitempty"`
}

// ListItems returns the authenticated user's items, newest first
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	items := h.manager.Get(user).Items()
	respondJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// CreateItem validates and creates a new item
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateItemRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		// Check if error is due to request size limit
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	syncer := h.manager.Get(user)
	if err := syncer.Create(r.Context(), req.Label, req.Date, req.Time); err != nil {
		switch {
		case errors.Is(err, listsync.ErrInvalidFormat), errors.Is(err, listsync.ErrInvalidCalendarDate):
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		case errors.Is(err, listsync.ErrAuthRequired):
			respondJSONError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		default:
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create item")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"items": syncer.Items(),
	})
}

// ToggleItem flips an item's done state
func (h *ItemHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid item ID")
		return
	}

	syncer := h.manager.Get(user)
	item := findItem(syncer.Items(), id)
	if item == nil {
		// Covers both unknown IDs and items owned by someone else.
		respondJSONError(w, http.StatusNotFound, "Not Found", "Item not found")
		return
	}

	if err := syncer.Toggle(r.Context(), item); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update item")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items": syncer.Items(),
	})
}

// DeleteItem removes an item
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid item ID")
		return
	}

	syncer := h.manager.Get(user)
	if findItem(syncer.Items(), id) == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Item not found")
		return
	}

	if err := syncer.Remove(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StreamItems streams the user's list over SSE: the full list on connect
// and again after every change.
func (h *ItemHandler) StreamItems(w http.ResponseWriter, r *http.Request) {
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

	// Watcher callbacks run under the synchronizer lock, so hand the
	// snapshots to the writer goroutine through a channel.
	snapshots := make(chan []*models.Item, 8)
	cancel := h.manager.Get(user).Watch(func(items []*models.Item) {
		select {
		case snapshots <- items:
		default:
			// Slow consumer; it will catch up with the next snapshot.
		}
	})
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case items := <-snapshots:
			if err := writeSSE(w, "items", map[string]any{
				"items": items,
				"count": len(items),
			}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func findItem(items []*models.Item, id uuid.UUID) *models.Item {
	for _, item := range items {
		if item.ID == id {
			return item
		}
	}
	return nil
}
