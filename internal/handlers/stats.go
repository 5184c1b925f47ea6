package handlers

import (
	"net/http"
	"time"
)

// MessagePreview represents a preview of a message.
type MessagePreview struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalUsers      int64            `json:"total_users"`
	TotalMessages   int64            `json:"total_messages"`
	TotalCharacters int64            `json:"total_characters"`
	LastActivity    string           `json:"last_activity"`
	RecentMessages  []MessagePreview `json:"recent_messages"`
}

// Stats returns platform statistics for the landing page.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalUsers, err := h.data.CountUsers(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count users")
		return
	}

	totalMessages, err := h.redis.CountMessages(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count messages")
		return
	}

	totalCharacters, err := h.data.CountCharacters(ctx)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to count characters")
		return
	}

	// Recent messages, newest first
	messages, err := h.redis.LatestMessages(ctx, 5)
	if err != nil {
		// Non-fatal, continue with empty messages
		messages = nil
	}

	lastActivity := "no activity yet"
	if len(messages) > 0 {
		lastActivity = formatTimeAgo(time.UnixMilli(messages[0].Timestamp))
	}

	recentMessages := make([]MessagePreview, 0, len(messages))
	for _, msg := range messages {
		// Truncate body if too long
		text := msg.Text
		if msg.IsImage() {
			text = "(image)"
		}
		if len(text) > 200 {
			text = text[:197] + "..."
		}

		recentMessages = append(recentMessages, MessagePreview{
			ID:        msg.ID,
			Name:      msg.Name,
			Text:      text,
			Timestamp: msg.Timestamp,
		})
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalUsers:      totalUsers,
		TotalMessages:   totalMessages,
		TotalCharacters: totalCharacters,
		LastActivity:    lastActivity,
		RecentMessages:  recentMessages,
	})
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return formatInt(mins) + " minutes ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return formatInt(hours) + " hours ago"
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return formatInt(days) + " days ago"
	}
}

// formatInt converts an int to string without importing strconv.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
