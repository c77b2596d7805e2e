package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	redisclient "github.com/civicpulse/reporter/backend/internal/infrastructure/clients/redis"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(redisclient.NewClientFromRedis(rdb)), mr
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	session := &entities.Session{
		ID:        "sess-1",
		User:      entities.SessionUser{ID: "u1", Email: "ana@example.com", Name: "Ana", Role: entities.RoleCitizen},
		Valid:     true,
		ExpiresAt: time.Now().Add(time.Hour),
		Token:     "bearer",
	}
	require.NoError(t, store.Save(ctx, session))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", loaded.User.Email)
	assert.Empty(t, loaded.Token)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err = store.Load(ctx, "sess-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestRedisStore_SnapshotExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &entities.Session{ID: "s", Valid: true, ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "s")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestRedisStore_CorruptSnapshotIsNotFound(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestRedisStore_RejectsExpiredSession(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Save(context.Background(), &entities.Session{ID: "old", ExpiresAt: time.Now().Add(-time.Second)})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
