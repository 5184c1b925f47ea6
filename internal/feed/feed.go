// Package feed turns point-in-time message windows into incremental
// change batches for live subscribers.
package feed

import (
	"github.com/zachlamont/wheres-wally/internal/models"
)

// WindowSize is the feed query limit: the most recent 12 messages by
// timestamp, descending.
const WindowSize = 12

// Kind classifies a change notification.
type Kind string

const (
	Added    Kind = "added"
	Modified Kind = "modified"
	Removed  Kind = "removed"
)

// Change is a single change notification. Message is set for Added and
// Modified, nil for Removed.
type Change struct {
	Kind    Kind            `json:"kind"`
	ID      string          `json:"id"`
	Message *models.Message `json:"message,omitempty"`
}

// Diff computes the change batch that transforms the prev window into next.
// Both windows are in store read order (newest first); the batch carries no
// ordering guarantee of its own, subscribers re-establish display order.
func Diff(prev, next []models.Message) []Change {
	prevByID := make(map[string]models.Message, len(prev))
	for _, m := range prev {
		prevByID[m.ID] = m
	}
	nextIDs := make(map[string]bool, len(next))
	for _, m := range next {
		nextIDs[m.ID] = true
	}

	var changes []Change

	for _, m := range prev {
		if !nextIDs[m.ID] {
			changes = append(changes, Change{Kind: Removed, ID: m.ID})
		}
	}

	for i := range next {
		m := next[i]
		old, ok := prevByID[m.ID]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Added, ID: m.ID, Message: &m})
		case old != m:
			changes = append(changes, Change{Kind: Modified, ID: m.ID, Message: &m})
		}
	}

	return changes
}

// Initial produces the batch delivered to a subscriber on connect: every
// message in the current window as an added change.
func Initial(window []models.Message) []Change {
	return Diff(nil, window)
}
