package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zachlamont/wheres-wally/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist and seeds the scene.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT UNIQUE NOT NULL,
		photo_url TEXT DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS push_tokens (
		user_id UUID NOT NULL REFERENCES users(id),
		token TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		PRIMARY KEY (user_id, token)
	);

	CREATE TABLE IF NOT EXISTS characters (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		min_x DOUBLE PRECISION NOT NULL,
		max_x DOUBLE PRECISION NOT NULL,
		min_y DOUBLE PRECISION NOT NULL,
		max_y DOUBLE PRECISION NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_name ON users(name);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return err
	}

	return seedCharacters(ctx, func(ctx context.Context, c models.Character) error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO characters (id, name, min_x, max_x, min_y, max_y)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, c.Name, c.MinX, c.MaxX, c.MinY, c.MaxY)
		return err
	})
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, name, photoURL, passwordHash string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, photo_url, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, photo_url, password_hash, created_at, updated_at
	`, name, photoURL, passwordHash).Scan(
		&user.ID,
		&user.Name,
		&user.PhotoURL,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, photo_url, password_hash, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Name,
		&user.PhotoURL,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByName retrieves a user by display name.
func (s *PostgresStore) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, photo_url, password_hash, created_at, updated_at
		FROM users WHERE name = $1
	`, name).Scan(
		&user.ID,
		&user.Name,
		&user.PhotoURL,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// CountUsers returns the total number of registered users.
func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// SavePushToken stores a device token for push messaging.
func (s *PostgresStore) SavePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO push_tokens (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (user_id, token) DO NOTHING
	`, userID, token)
	return err
}

// ListPushTokens retrieves the device tokens registered for a user.
func (s *PostgresStore) ListPushTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token FROM push_tokens WHERE user_id = $1 ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// ListCharacters retrieves all hidden characters in the scene.
func (s *PostgresStore) ListCharacters(ctx context.Context) ([]models.Character, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, min_x, max_x, min_y, max_y
		FROM characters ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chars []models.Character
	for rows.Next() {
		var c models.Character
		if err := rows.Scan(&c.ID, &c.Name, &c.MinX, &c.MaxX, &c.MinY, &c.MaxY); err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// CountCharacters returns the number of characters in the scene.
func (s *PostgresStore) CountCharacters(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM characters`).Scan(&count)
	return count, err
}
