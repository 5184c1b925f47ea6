package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zachlamont/wheres-wally/internal/api/middleware"
)

// PushTokenRequest represents the push token registration body.
type PushTokenRequest struct {
	Token string `json:"token"`
}

// RegisterPushToken stores the caller's device token for push messaging
// (authenticated). Delivery is handled by the push platform, not here.
func (h *Handler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "sign in to register for notifications")
		return
	}

	var req PushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Token == "" || len(req.Token) > 512 {
		h.Error(w, http.StatusBadRequest, "token must be 1-512 characters")
		return
	}

	if err := h.data.SavePushToken(r.Context(), user.ID, req.Token); err != nil {
		// Token retrieval/storage failures are logged, never user-blocking
		h.logger.Warn().Err(err).Str("user", user.ID.String()).Msg("failed to save push token")
		h.Error(w, http.StatusInternalServerError, "failed to save token")
		return
	}

	h.JSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}
