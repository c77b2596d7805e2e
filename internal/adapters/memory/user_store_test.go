package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

func TestUserStore_EmailIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()

	require.NoError(t, store.Create(ctx, &entities.User{ID: "1", Email: "Ana@Example.com", Name: "Ana"}))
	err := store.Create(ctx, &entities.User{ID: "2", Email: "ana@example.com ", Name: "Other"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))

	user, err := store.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", user.ID)

	_, err = store.GetByID(ctx, "2")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestUserStore_GetByIDsSkipsUnknown(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()
	require.NoError(t, store.Create(ctx, &entities.User{ID: "1", Email: "a@example.com"}))

	users, err := store.GetByIDs(ctx, []string{"1", "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSessionStore_ExpiredSnapshotIsGone(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &entities.Session{ID: "s1", Valid: true, ExpiresAt: now.Add(time.Hour), Token: "secret"}))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Token)

	now = now.Add(2 * time.Hour)
	_, err = store.Load(ctx, "s1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	assert.NoError(t, store.Delete(ctx, "s1"))
}
