package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zachlamont/wheres-wally/internal/models"
)

const (
	messageTTL = 7 * 24 * time.Hour
	searchTTL  = 7 * 24 * time.Hour
	sessionTTL = 30 * 24 * time.Hour
	foundTTL   = 24 * time.Hour

	// changeChannel is the pub/sub channel notified after every message
	// mutation. Feed subscribers re-read the window on each notification.
	changeChannel = "chat:changes"
)

// ErrNotFound is returned when a patched or deleted message does not exist.
var ErrNotFound = errors.New("message not found")

// RedisStore handles Redis operations for messages, sessions and the
// minigame found-sets.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying Redis client for middleware that needs
// direct access (rate limiting).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// messagesKey is the sorted set of message IDs scored by timestamp.
const messagesKey = "chat:messages"

// messageKey returns the key holding a message body.
func messageKey(id string) string {
	return "chat:msg:" + id
}

// searchWordKey returns the key for a search word index.
func searchWordKey(word string) string {
	return "search:words:" + strings.ToLower(word)
}

// sessionKey returns the key for a session token.
func sessionKey(token string) string {
	return "session:" + token
}

// foundKey returns the key for a user's found-character set.
func foundKey(userID string) string {
	return "game:found:" + userID
}

// CreateMessage stores a new message, assigning its ID and timestamp.
func (s *RedisStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	if err := s.writeMessage(ctx, msg); err != nil {
		return err
	}

	// Index for search
	if err := s.IndexMessage(ctx, msg); err != nil {
		// Search indexing is best-effort
		_ = err
	}

	s.notifyChange(ctx, msg.ID)
	return nil
}

// MessagePatch holds the fields a message patch may change. The timestamp
// is immutable once assigned and is never part of a patch.
type MessagePatch struct {
	Text       *string `json:"text,omitempty"`
	ImageURL   *string `json:"imageUrl,omitempty"`
	StorageURI *string `json:"storageUri,omitempty"`
}

// PatchMessage updates payload fields of an existing message in place.
func (s *RedisStore) PatchMessage(ctx context.Context, id string, patch MessagePatch) (*models.Message, error) {
	msg, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNotFound
	}

	if patch.Text != nil {
		msg.Text = *patch.Text
		msg.ImageURL = ""
	}
	if patch.ImageURL != nil {
		msg.ImageURL = *patch.ImageURL
		msg.Text = ""
	}
	if patch.StorageURI != nil {
		msg.StorageURI = *patch.StorageURI
	}

	if err := s.writeMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.notifyChange(ctx, msg.ID)
	return msg, nil
}

// DeleteMessage removes a message.
func (s *RedisStore) DeleteMessage(ctx context.Context, id string) error {
	removed, err := s.client.ZRem(ctx, messagesKey, id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotFound
	}
	s.client.Del(ctx, messageKey(id))
	s.notifyChange(ctx, id)
	return nil
}

// writeMessage persists the message body and its position in the sorted set.
func (s *RedisStore) writeMessage(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, messageKey(msg.ID), data, messageTTL)
	pipe.ZAdd(ctx, messagesKey, redis.Z{
		Score:  float64(msg.Timestamp),
		Member: msg.ID,
	})
	pipe.Expire(ctx, messagesKey, messageTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// notifyChange publishes a change notification for feed subscribers.
func (s *RedisStore) notifyChange(ctx context.Context, id string) {
	s.client.Publish(ctx, changeChannel, id)
}

// SubscribeChanges subscribes to message change notifications.
// The caller owns the returned PubSub and must close it.
func (s *RedisStore) SubscribeChanges(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, changeChannel)
}

// GetMessage retrieves a message by ID. Returns nil, nil if absent.
func (s *RedisStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	data, err := s.client.Get(ctx, messageKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var msg models.Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// LatestMessages retrieves the most recent messages, newest first.
func (s *RedisStore) LatestMessages(ctx context.Context, limit int) ([]models.Message, error) {
	ids, err := s.client.ZRevRange(ctx, messagesKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		msg, err := s.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			// Body expired; drop the stale index entry
			s.client.ZRem(ctx, messagesKey, id)
			continue
		}
		messages = append(messages, *msg)
	}

	return messages, nil
}

// CountMessages returns the number of stored messages.
func (s *RedisStore) CountMessages(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, messagesKey).Result()
}

// wordRegex matches word characters for search indexing.
var wordRegex = regexp.MustCompile(`\w+`)

// IndexMessage indexes a text message for search.
func (s *RedisStore) IndexMessage(ctx context.Context, msg *models.Message) error {
	if msg.Text == "" {
		return nil
	}

	words := wordRegex.FindAllString(strings.ToLower(msg.Text), -1)

	// Deduplicate words
	seen := make(map[string]bool)
	for _, word := range words {
		if len(word) < 3 || seen[word] {
			continue
		}
		seen[word] = true

		key := searchWordKey(word)
		s.client.ZAdd(ctx, key, redis.Z{
			Score:  float64(msg.Timestamp),
			Member: msg.ID,
		})
		s.client.Expire(ctx, key, searchTTL)
	}

	return nil
}

// SearchMessages searches for messages containing all the given tokens.
func (s *RedisStore) SearchMessages(ctx context.Context, tokens []string, limit int, after int64) ([]models.Message, error) {
	if len(tokens) == 0 {
		return []models.Message{}, nil
	}

	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = searchWordKey(t)
	}

	minScore := "-inf"
	if after > 0 {
		minScore = fmt.Sprintf("(%d", after) // exclusive
	}

	var ids []string

	if len(keys) == 1 {
		ids, _ = s.client.ZRevRangeByScore(ctx, keys[0], &redis.ZRangeBy{
			Min:   minScore,
			Max:   "+inf",
			Count: int64(limit * 3), // Fetch extra for filtering
		}).Result()
	} else {
		// Multiple words: use ZINTERSTORE on a temporary key
		tempKey := fmt.Sprintf("search:temp:%d", time.Now().UnixNano())

		s.client.ZInterStore(ctx, tempKey, &redis.ZStore{
			Keys:      keys,
			Aggregate: "MIN",
		})
		s.client.Expire(ctx, tempKey, 10*time.Second)

		ids, _ = s.client.ZRevRangeByScore(ctx, tempKey, &redis.ZRangeBy{
			Min:   minScore,
			Max:   "+inf",
			Count: int64(limit * 3),
		}).Result()

		s.client.Del(ctx, tempKey)
	}

	messages := make([]models.Message, 0, limit)
	for _, id := range ids {
		msg, err := s.GetMessage(ctx, id)
		if err != nil || msg == nil {
			continue // Message expired
		}
		messages = append(messages, *msg)
		if len(messages) >= limit {
			break
		}
	}

	return messages, nil
}

// CreateSession issues a session token for a user.
func (s *RedisStore) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(token), userID.String(), sessionTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// GetSession resolves a session token to a user ID.
// Returns uuid.Nil with no error for unknown or expired tokens.
func (s *RedisStore) GetSession(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// DeleteSession revokes a session token.
func (s *RedisStore) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// MarkFound records that a user has found a character.
func (s *RedisStore) MarkFound(ctx context.Context, userID uuid.UUID, characterID string) error {
	key := foundKey(userID.String())
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, key, characterID)
	pipe.Expire(ctx, key, foundTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// FoundCharacters returns the character IDs a user has found so far.
func (s *RedisStore) FoundCharacters(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.client.SMembers(ctx, foundKey(userID.String())).Result()
}
