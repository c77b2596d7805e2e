package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

func TestSQLiteSnapshotStore(t *testing.T) {
	store, err := OpenSnapshotStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	expires := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	require.NoError(t, store.Save(ctx, &Snapshot{
		Token:     "t1",
		User:      entities.SessionUser{ID: "u1", Name: "Ana", Role: entities.RoleCitizen, Level: 2},
		ExpiresAt: expires,
	}))
	require.NoError(t, store.Save(ctx, &Snapshot{
		Token:     "t2",
		User:      entities.SessionUser{ID: "u1", Name: "Ana", Role: entities.RoleCitizen, Level: 3},
		ExpiresAt: expires,
	}))

	snap, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "t2", snap.Token)
	assert.Equal(t, 3, snap.User.Level)
	assert.True(t, expires.Equal(snap.ExpiresAt))

	require.NoError(t, store.Clear(ctx))
	snap, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSQLiteSnapshotStore_File(t *testing.T) {
	path := t.TempDir() + "/state/session.db"
	ctx := context.Background()

	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, &Snapshot{Token: "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "persisted", snap.Token)
	assert.True(t, snap.ExpiresAt.IsZero())
}
