package store

import (
	"context"

	"github.com/zachlamont/wheres-wally/internal/models"
)

// sceneCharacters is the default set of hidden characters for the bundled
// scene. Bounding boxes are normalized to the scene image dimensions.
var sceneCharacters = []models.Character{
	{ID: "waldo", Name: "Waldo", MinX: 0.455, MaxX: 0.497, MinY: 0.347, MaxY: 0.417},
	{ID: "wenda", Name: "Wenda", MinX: 0.118, MaxX: 0.160, MinY: 0.601, MaxY: 0.672},
	{ID: "odlaw", Name: "Odlaw", MinX: 0.741, MaxX: 0.785, MinY: 0.193, MaxY: 0.262},
	{ID: "wizard", Name: "Wizard Whitebeard", MinX: 0.312, MaxX: 0.359, MinY: 0.788, MaxY: 0.861},
}

// seedCharacters inserts the default characters using the provided insert
// function. Inserts are expected to be idempotent.
func seedCharacters(ctx context.Context, insert func(context.Context, models.Character) error) error {
	for _, c := range sceneCharacters {
		if err := insert(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
