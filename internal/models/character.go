package models

// Character represents a hidden character in the minigame scene.
// The bounding box is normalized to the scene dimensions (0..1).
type Character struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	MinX float64 `json:"-"`
	MaxX float64 `json:"-"`
	MinY float64 `json:"-"`
	MaxY float64 `json:"-"`
}
