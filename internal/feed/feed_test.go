package feed

import (
	"testing"

	"github.com/zachlamont/wheres-wally/internal/models"
)

func msg(id string, ts int64, text string) models.Message {
	return models.Message{
		ID:            id,
		Name:          "tester",
		Text:          text,
		ProfilePicURL: "http://example.com/pic.png",
		Timestamp:     ts,
	}
}

func TestDiffInitial(t *testing.T) {
	window := []models.Message{msg("B", 200, "yo"), msg("A", 100, "hi")}

	changes := Initial(window)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	for _, c := range changes {
		if c.Kind != Added {
			t.Fatalf("expected added, got %s for %s", c.Kind, c.ID)
		}
		if c.Message == nil {
			t.Fatalf("added change %s missing snapshot", c.ID)
		}
	}
}

func TestDiffAdd(t *testing.T) {
	prev := []models.Message{msg("A", 100, "hi")}
	next := []models.Message{msg("B", 200, "yo"), msg("A", 100, "hi")}

	changes := Diff(prev, next)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Kind != Added || changes[0].ID != "B" {
		t.Fatalf("expected added B, got %s %s", changes[0].Kind, changes[0].ID)
	}
}

func TestDiffModified(t *testing.T) {
	placeholder := models.Message{
		ID:        "A",
		Name:      "tester",
		ImageURL:  models.LoadingImageURL,
		Timestamp: 100,
	}
	resolved := placeholder
	resolved.ImageURL = "http://example.com/cat.png"
	resolved.StorageURI = "blob:cat"

	changes := Diff([]models.Message{placeholder}, []models.Message{resolved})
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	c := changes[0]
	if c.Kind != Modified || c.ID != "A" {
		t.Fatalf("expected modified A, got %s %s", c.Kind, c.ID)
	}
	if c.Message.ImageURL != "http://example.com/cat.png" {
		t.Fatalf("snapshot not resolved: %q", c.Message.ImageURL)
	}
}

func TestDiffRemoved(t *testing.T) {
	prev := []models.Message{msg("B", 200, "yo"), msg("A", 100, "hi")}
	next := []models.Message{msg("B", 200, "yo")}

	changes := Diff(prev, next)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Kind != Removed || changes[0].ID != "A" {
		t.Fatalf("expected removed A, got %s %s", changes[0].Kind, changes[0].ID)
	}
	if changes[0].Message != nil {
		t.Fatal("removed change must not carry a snapshot")
	}
}

func TestDiffWindowSlide(t *testing.T) {
	// A new message pushes the oldest out of the window: one added, one removed.
	prev := []models.Message{msg("C", 300, "c"), msg("B", 200, "b")}
	next := []models.Message{msg("D", 400, "d"), msg("C", 300, "c")}

	changes := Diff(prev, next)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	kinds := map[string]Kind{}
	for _, c := range changes {
		kinds[c.ID] = c.Kind
	}
	if kinds["B"] != Removed {
		t.Fatalf("expected B removed, got %s", kinds["B"])
	}
	if kinds["D"] != Added {
		t.Fatalf("expected D added, got %s", kinds["D"])
	}
}

func TestDiffNoChange(t *testing.T) {
	window := []models.Message{msg("A", 100, "hi")}
	if changes := Diff(window, window); len(changes) != 0 {
		t.Fatalf("expected empty batch, got %d changes", len(changes))
	}
}
