// Package game implements the "find the hidden character" minigame:
// matching a clicked scene coordinate against character bounding boxes.
package game

import (
	"github.com/zachlamont/wheres-wally/internal/models"
)

// Match returns the character whose bounding box contains the normalized
// coordinate (x, y), or nil if the guess hits nothing. Boxes are inclusive
// on both edges; when boxes overlap the first match in slice order wins.
func Match(chars []models.Character, x, y float64) *models.Character {
	for i := range chars {
		c := &chars[i]
		if x >= c.MinX && x <= c.MaxX && y >= c.MinY && y <= c.MaxY {
			return c
		}
	}
	return nil
}

// Complete reports whether every character has been found.
func Complete(chars []models.Character, found []string) bool {
	if len(chars) == 0 {
		return false
	}
	foundSet := make(map[string]bool, len(found))
	for _, id := range found {
		foundSet[id] = true
	}
	for _, c := range chars {
		if !foundSet[c.ID] {
			return false
		}
	}
	return true
}
