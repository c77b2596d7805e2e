package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	redisclient "github.com/civicpulse/reporter/backend/internal/infrastructure/clients/redis"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

const keyPrefix = "session:"

// RedisStore persists session snapshots as JSON with a TTL matching the
// session's expiry
type RedisStore struct {
	client *redisclient.Client
	now    func() time.Time
}

var _ providers.SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Save stores the snapshot until it expires
func (s *RedisStore) Save(ctx context.Context, session *entities.Session) error {
	ttl := time.Duration(0)
	if !session.ExpiresAt.IsZero() {
		ttl = session.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return apperrors.NewValidationError("session already expired")
		}
	}

	snapshot := *session
	snapshot.Token = ""
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Client().Set(ctx, keyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return apperrors.NewTransportError("failed to persist session", err)
	}
	return nil
}

// Load returns the snapshot or a NotFoundError
func (s *RedisStore) Load(ctx context.Context, id string) (*entities.Session, error) {
	payload, err := s.client.Client().Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if err != nil {
		return nil, apperrors.NewTransportError("failed to load session", err)
	}

	var session entities.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, apperrors.NewNotFoundError("session snapshot is corrupt")
	}
	return &session, nil
}

// Delete removes the snapshot
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Client().Del(ctx, keyPrefix+id).Err(); err != nil {
		return apperrors.NewTransportError("failed to delete session", err)
	}
	return nil
}
