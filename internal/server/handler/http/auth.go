package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/ContactKeeper/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates an account and returns a session for it.
	Register(ctx context.Context, username, password string) (*service.Session, error)
	// Login checks the credentials and returns a new session.
	Login(ctx context.Context, username, password string) (*service.Session, error)
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// CredentialsRequest represents the JSON payload for registration and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned after a successful registration or login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse identifies the logged in user.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	sess, err := h.AuthService.Register(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrUserExists):
		http.Error(w, "user already exists", http.StatusConflict)
		return
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "failed to create account", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	sess, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, "invalid username or password", http.StatusUnauthorized)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func newSessionResponse(sess *service.Session) SessionResponse {
	return SessionResponse{
		Token: sess.Token,
		User:  UserResponse{ID: sess.UserID, Username: sess.Username},
	}
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
