package game

import (
	"testing"

	"github.com/zachlamont/wheres-wally/internal/models"
)

var scene = []models.Character{
	{ID: "waldo", Name: "Waldo", MinX: 0.4, MaxX: 0.5, MinY: 0.3, MaxY: 0.4},
	{ID: "odlaw", Name: "Odlaw", MinX: 0.7, MaxX: 0.8, MinY: 0.1, MaxY: 0.2},
}

func TestMatchHit(t *testing.T) {
	c := Match(scene, 0.45, 0.35)
	if c == nil {
		t.Fatal("expected a hit")
	}
	if c.ID != "waldo" {
		t.Fatalf("expected waldo, got %s", c.ID)
	}
}

func TestMatchEdgesInclusive(t *testing.T) {
	if c := Match(scene, 0.4, 0.3); c == nil || c.ID != "waldo" {
		t.Fatal("box edges should count as hits")
	}
	if c := Match(scene, 0.8, 0.2); c == nil || c.ID != "odlaw" {
		t.Fatal("box edges should count as hits")
	}
}

func TestMatchMiss(t *testing.T) {
	if c := Match(scene, 0.0, 0.0); c != nil {
		t.Fatalf("expected a miss, got %s", c.ID)
	}
	// Right x, wrong y
	if c := Match(scene, 0.45, 0.9); c != nil {
		t.Fatalf("expected a miss, got %s", c.ID)
	}
}

func TestComplete(t *testing.T) {
	if Complete(scene, []string{"waldo"}) {
		t.Fatal("one of two found should not be complete")
	}
	if !Complete(scene, []string{"odlaw", "waldo"}) {
		t.Fatal("all found should be complete")
	}
	if Complete(nil, nil) {
		t.Fatal("empty scene is never complete")
	}
}
