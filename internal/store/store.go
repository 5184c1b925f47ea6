package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/zachlamont/wheres-wally/internal/models"
)

// DataStore defines the interface for persistent storage of users, push
// tokens and minigame characters. Both PostgresStore and SQLiteStore
// implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, name, photoURL, passwordHash string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Push token operations
	SavePushToken(ctx context.Context, userID uuid.UUID, token string) error
	ListPushTokens(ctx context.Context, userID uuid.UUID) ([]string, error)

	// Minigame operations
	ListCharacters(ctx context.Context) ([]models.Character, error)
	CountCharacters(ctx context.Context) (int64, error)
}
