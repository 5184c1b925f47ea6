package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/zachlamont/wheres-wally/internal/api/middleware"
	"github.com/zachlamont/wheres-wally/internal/metrics"
)

// SignUpRequest represents the sign-up request body.
type SignUpRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// SignInRequest represents the sign-in request body.
type SignInRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SessionResponse represents a successful sign-up or sign-in.
type SessionResponse struct {
	Token    string `json:"token"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// MeResponse represents the current viewer's identity snapshot.
type MeResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// SignUp handles user registration and issues a session token.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	name := sanitizeName(req.Name)
	if name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Password) < 8 {
		h.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.PhotoURL != "" && !strings.HasPrefix(req.PhotoURL, "http") {
		h.Error(w, http.StatusBadRequest, "photo_url must be an http(s) URL")
		return
	}

	existing, err := h.data.GetUserByName(r.Context(), name)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if existing != nil {
		h.Error(w, http.StatusConflict, "name already taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.data.CreateUser(r.Context(), name, req.PhotoURL, string(hash))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.redis.CreateSession(r.Context(), user.ID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	metrics.UsersRegistered.Inc()

	h.JSON(w, http.StatusCreated, SessionResponse{
		Token:    token,
		ID:       user.ID.String(),
		Name:     user.Name,
		PhotoURL: user.PhotoURL,
	})
}

// SignIn handles user sign-in and issues a session token.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.data.GetUserByName(r.Context(), sanitizeName(req.Name))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "unknown name or wrong password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.Error(w, http.StatusUnauthorized, "unknown name or wrong password")
		return
	}

	token, err := h.redis.CreateSession(r.Context(), user.ID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.JSON(w, http.StatusOK, SessionResponse{
		Token:    token,
		ID:       user.ID.String(),
		Name:     user.Name,
		PhotoURL: user.PhotoURL,
	})
}

// SignOut revokes the caller's session token.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		if err := h.redis.DeleteSession(r.Context(), strings.TrimSpace(token)); err != nil {
			h.logger.Warn().Err(err).Msg("failed to delete session")
		}
	}
	h.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Me returns the current viewer's display name and photo.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "sign in to continue")
		return
	}

	h.JSON(w, http.StatusOK, MeResponse{
		ID:          user.ID.String(),
		DisplayName: user.Name,
		PhotoURL:    user.PhotoURL,
	})
}
