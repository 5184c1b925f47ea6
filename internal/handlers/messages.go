package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zachlamont/wheres-wally/internal/api/middleware"
	"github.com/zachlamont/wheres-wally/internal/feed"
	"github.com/zachlamont/wheres-wally/internal/metrics"
	"github.com/zachlamont/wheres-wally/internal/models"
	"github.com/zachlamont/wheres-wally/internal/store"
)

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Text string `json:"text"`
}

// PostMessageResponse represents the post message response.
type PostMessageResponse struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

// PatchMessageRequest represents the patch message request. Only payload
// fields may change; the timestamp is immutable once assigned.
type PatchMessageRequest struct {
	ImageURL   *string `json:"imageUrl,omitempty"`
	StorageURI *string `json:"storageUri,omitempty"`
}

// MessagesResponse represents the message list response.
type MessagesResponse struct {
	Messages []models.Message `json:"messages"`
}

// ListMessages returns the most recent messages, newest first.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := feed.WindowSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 100 {
		limit = 100
	}

	messages, err := h.redis.LatestMessages(r.Context(), limit)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}

	h.JSON(w, http.StatusOK, MessagesResponse{Messages: messages})
}

// PostMessage handles posting a text message (authenticated).
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "sign in to send messages")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Text == "" {
		h.Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.Text) > 4096 {
		h.Error(w, http.StatusUnprocessableEntity, "text too long (max 4096 bytes)")
		return
	}

	// Author fields are a snapshot taken at send time
	msg := &models.Message{
		Name:          user.Name,
		Text:          req.Text,
		ProfilePicURL: user.PhotoURL,
	}

	if err := h.redis.CreateMessage(r.Context(), msg); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	metrics.MessagesPosted.WithLabelValues("text").Inc()

	h.JSON(w, http.StatusCreated, PostMessageResponse{
		ID:        msg.ID,
		Timestamp: msg.Timestamp,
	})
}

// PostImageMessage creates an image placeholder message (authenticated).
// The caller uploads the attachment afterwards and patches the message
// with the resolved URL.
func (h *Handler) PostImageMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "sign in to send messages")
		return
	}

	msg := &models.Message{
		Name:          user.Name,
		ImageURL:      models.LoadingImageURL,
		ProfilePicURL: user.PhotoURL,
	}

	if err := h.redis.CreateMessage(r.Context(), msg); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	metrics.MessagesPosted.WithLabelValues("image").Inc()

	h.JSON(w, http.StatusCreated, PostMessageResponse{
		ID:        msg.ID,
		Timestamp: msg.Timestamp,
	})
}

// PatchMessage resolves an image placeholder in place (authenticated).
func (h *Handler) PatchMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "sign in to edit messages")
		return
	}

	id := chi.URLParam(r, "id")

	existing, err := h.redis.GetMessage(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch message")
		return
	}
	if existing == nil {
		h.Error(w, http.StatusNotFound, "message not found")
		return
	}
	if existing.Name != user.Name {
		h.Error(w, http.StatusForbidden, "only the author may edit a message")
		return
	}

	var req PatchMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ImageURL == nil && req.StorageURI == nil {
		h.Error(w, http.StatusBadRequest, "nothing to patch")
		return
	}

	msg, err := h.redis.PatchMessage(r.Context(), id, store.MessagePatch{
		ImageURL:   req.ImageURL,
		StorageURI: req.StorageURI,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "message not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to patch message")
		return
	}

	h.JSON(w, http.StatusOK, msg)
}

// DeleteMessage removes a message (authenticated, author only).
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "sign in to delete messages")
		return
	}

	id := chi.URLParam(r, "id")

	existing, err := h.redis.GetMessage(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch message")
		return
	}
	if existing == nil {
		h.Error(w, http.StatusNotFound, "message not found")
		return
	}
	if existing.Name != user.Name {
		h.Error(w, http.StatusForbidden, "only the author may delete a message")
		return
	}

	if err := h.redis.DeleteMessage(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "message not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to delete message")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
