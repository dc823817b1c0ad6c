package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/benvon/selfspeak/internal/request"
)

// AuthHandler handles authentication-related requests. Sign-in happens at
// the identity provider; this service only reports who a token belongs to.
type AuthHandler struct{}

// NewAuthHandler creates a new auth handler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "unauthorized", "User not found in context")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
