package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zachlamont/wheres-wally/internal/api/middleware"
	"github.com/zachlamont/wheres-wally/internal/game"
	"github.com/zachlamont/wheres-wally/internal/metrics"
)

// CharacterInfo represents a character in the list response.
// Bounding boxes are deliberately not exposed.
type CharacterInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Found bool   `json:"found"`
}

// CharactersResponse represents the character list response.
type CharactersResponse struct {
	Characters []CharacterInfo `json:"characters"`
}

// GuessRequest represents a minigame guess: a normalized scene coordinate.
type GuessRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GuessResponse represents the result of a guess.
type GuessResponse struct {
	Hit       bool   `json:"hit"`
	Character string `json:"character,omitempty"`
	Complete  bool   `json:"complete"`
}

// ListCharacters lists the hidden characters, with found state when the
// caller is signed in.
func (h *Handler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	chars, err := h.data.ListCharacters(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	found := map[string]bool{}
	if user := middleware.GetUserFromContext(r.Context()); user != nil {
		ids, err := h.redis.FoundCharacters(r.Context(), user.ID)
		if err == nil {
			for _, id := range ids {
				found[id] = true
			}
		}
	}

	infos := make([]CharacterInfo, len(chars))
	for i, c := range chars {
		infos[i] = CharacterInfo{ID: c.ID, Name: c.Name, Found: found[c.ID]}
	}

	h.JSON(w, http.StatusOK, CharactersResponse{Characters: infos})
}

// Guess checks a clicked coordinate against the scene (authenticated).
func (h *Handler) Guess(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "sign in to play")
		return
	}

	var req GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.X < 0 || req.X > 1 || req.Y < 0 || req.Y > 1 {
		h.Error(w, http.StatusBadRequest, "coordinates must be normalized to 0..1")
		return
	}

	chars, err := h.data.ListCharacters(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	hit := game.Match(chars, req.X, req.Y)
	if hit == nil {
		metrics.GuessesTotal.WithLabelValues("miss").Inc()
		h.JSON(w, http.StatusOK, GuessResponse{Hit: false})
		return
	}

	if err := h.redis.MarkFound(r.Context(), user.ID, hit.ID); err != nil {
		h.logger.Warn().Err(err).Str("character", hit.ID).Msg("failed to record find")
	}

	found, err := h.redis.FoundCharacters(r.Context(), user.ID)
	if err != nil {
		found = []string{hit.ID}
	}

	metrics.GuessesTotal.WithLabelValues("hit").Inc()

	h.JSON(w, http.StatusOK, GuessResponse{
		Hit:       true,
		Character: hit.Name,
		Complete:  game.Complete(chars, found),
	})
}
