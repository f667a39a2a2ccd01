package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/yeojun7429/portfolio-api/internal/listsync"
	"github.com/yeojun7429/portfolio-api/internal/middleware"
	"github.com/yeojun7429/portfolio-api/internal/models"
	"github.com/yeojun7429/portfolio-api/internal/store"
	"go.uber.org/zap"
)

func newItemTestRouter() (*mux.Router, *listsync.Manager, *store.MemoryItemStore) {
	st := store.NewMemoryItemStore()
	manager := listsync.NewManager(st, zap.NewNop())
	handler := NewItemHandler(manager)

	r := mux.NewRouter()
	handler.RegisterRoutes(r.PathPrefix("/items").Subrouter())
	return r, manager, st
}

func authedRequest(method, target string, body []byte, user *models.User) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != nil {
		req = req.WithContext(middleware.SetUserInContext(req.Context(), user))
	}
	return req
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestItemHandler_RequiresAuth(t *testing.T) {
	t.Parallel()

	r, _, _ := newItemTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/items", nil, nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestItemHandler_CreateAndList(t *testing.T) {
	t.Parallel()

	r, _, _ := newItemTestRouter()
	user := &models.User{ID: uuid.New(), Email: "demo@example.com"}

	payload := []byte(`{"label": "buy milk"}`)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/items", payload, user))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodGet, "/items", nil, user))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}

	body := decodeEnvelope(t, w.Result())
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data envelope: %v", body)
	}
	if count, ok := data["count"].(float64); !ok || count != 1 {
		t.Errorf("count = %v, want 1", data["count"])
	}
}

func TestItemHandler_CreateRejectsInvalidLabel(t *testing.T) {
	t.Parallel()

	longLabel := make([]byte, 1001)
	for i := range longLabel {
		longLabel[i] = 'a'
	}

	tests := []struct {
		name    string
		payload string
	}{
		{"missing label", `{}`},
		{"empty label", `{"label": ""}`},
		{"oversized label", fmt.Sprintf(`{"label": %q}`, longLabel)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _, _ := newItemTestRouter()
			user := &models.User{ID: uuid.New(), Email: "demo@example.com"}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, authedRequest(http.MethodPost, "/items", []byte(tt.payload), user))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
			}

			w = httptest.NewRecorder()
			r.ServeHTTP(w, authedRequest(http.MethodGet, "/items", nil, user))
			data, ok := decodeEnvelope(t, w.Result())["data"].(map[string]any)
			if !ok || data["count"].(float64) != 0 {
				t.Errorf("expected no items after rejected create, got %v", data)
			}
		})
	}
}

func TestItemHandler_CreateWithInvalidDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{"date without time", `{"label": "x", "date": "2026-03-01"}`},
		{"bad format", `{"label": "x", "date": "2026/03/01", "time": "09:30"}`},
		{"nonexistent date", `{"label": "x", "date": "2026-02-30", "time": "09:30"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _, _ := newItemTestRouter()
			user := &models.User{ID: uuid.New(), Email: "demo@example.com"}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, authedRequest(http.MethodPost, "/items", []byte(tt.payload), user))
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestItemHandler_Toggle(t *testing.T) {
	t.Parallel()

	r, manager, st := newItemTestRouter()
	user := &models.User{ID: uuid.New(), Email: "demo@example.com"}

	if err := manager.Get(user).Create(context.Background(), "task", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	item := manager.Get(user).Items()[0]

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, fmt.Sprintf("/items/%s/toggle", item.ID), nil, user))
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, want 200: %s", w.Code, w.Body.String())
	}

	if got := st.Get(item.ID); !got.Done {
		t.Error("expected item done after toggle")
	}
}

func TestItemHandler_ToggleForeignItemIsNotFound(t *testing.T) {
	t.Parallel()

	r, manager, _ := newItemTestRouter()
	alice := &models.User{ID: uuid.New(), Email: "alice@example.com"}
	bob := &models.User{ID: uuid.New(), Email: "bob@example.com"}

	if err := manager.Get(alice).Create(context.Background(), "alice task", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	item := manager.Get(alice).Items()[0]

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, fmt.Sprintf("/items/%s/toggle", item.ID), nil, bob))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for another user's item", w.Code)
	}
}

func TestItemHandler_Delete(t *testing.T) {
	t.Parallel()

	r, manager, _ := newItemTestRouter()
	user := &models.User{ID: uuid.New(), Email: "demo@example.com"}

	if err := manager.Get(user).Create(context.Background(), "task", "", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	item := manager.Get(user).Items()[0]

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodDelete, "/items/"+item.ID.String(), nil, user))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}

	if got := manager.Get(user).Items(); len(got) != 0 {
		t.Errorf("items remaining after delete: %d", len(got))
	}
}

func TestItemHandler_DeleteUnknownID(t *testing.T) {
	t.Parallel()

	r, _, _ := newItemTestRouter()
	user := &models.User{ID: uuid.New(), Email: "demo@example.com"}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodDelete, "/items/"+uuid.NewString(), nil, user))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodDelete, "/items/not-a-uuid", nil, user))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for malformed ID", w.Code)
	}
}
