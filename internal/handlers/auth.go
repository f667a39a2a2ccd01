package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/yeojun7429/portfolio-api/internal/listsync"
	"github.com/yeojun7429/portfolio-api/internal/middleware"
	"github.com/yeojun7429/portfolio-api/internal/session"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	provider session.Provider
	manager  *listsync.Manager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(provider session.Provider, manager *listsync.Manager) *AuthHandler {
	return &AuthHandler{provider: provider, manager: manager}
}

// RegisterRoutes registers the unauthenticated auth routes
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods("POST")
}

// RegisterProtectedRoutes registers the auth routes behind the auth middleware
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/logout", h.Logout).Methods("POST")
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// Login resolves credentials to a session token and arms the user's
// synchronizer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&creds); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	user, tokenString, err := h.provider.SignIn(r.Context(), creds)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			respondJSONError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		// Credential shape errors come back as-is from the provider.
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	h.manager.Get(user)

	respondJSON(w, http.StatusOK, map[string]any{
		"token": tokenString,
		"user":  user,
	})
}

// Logout drops the user's synchronizer. The token itself simply expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if err := h.provider.SignOut(r.Context()); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to sign out")
		return
	}
	h.manager.Drop(user.ID)

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "signed out",
	})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
