package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

func TestCommentStore_ToggleLikeIsIdempotentByState(t *testing.T) {
	ctx := context.Background()
	store := NewCommentStore()
	like := &entities.Comment{ID: "l1", IssueID: "issue-1", UserID: "u1"}

	liked, err := store.ToggleLike(ctx, like)
	require.NoError(t, err)
	assert.True(t, liked)

	count, _ := store.CountLikes(ctx, "issue-1")
	assert.Equal(t, 1, count)

	liked, err = store.ToggleLike(ctx, &entities.Comment{ID: "l2", IssueID: "issue-1", UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, liked)

	count, _ = store.CountLikes(ctx, "issue-1")
	assert.Equal(t, 0, count)
}

func TestCommentStore_LikesExcludedFromComments(t *testing.T) {
	ctx := context.Background()
	store := NewCommentStore()

	require.NoError(t, store.Add(ctx, &entities.Comment{ID: "c1", IssueID: "i", UserID: "u1", Content: "first"}))
	_, err := store.ToggleLike(ctx, &entities.Comment{ID: "l1", IssueID: "i", UserID: "u2"})
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, &entities.Comment{ID: "c2", IssueID: "i", UserID: "u1", Content: "second"}))

	comments, err := store.ListComments(ctx, "i")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	n, _ := store.CountComments(ctx, "i")
	assert.Equal(t, 2, n)
	likes, _ := store.CountLikes(ctx, "i")
	assert.Equal(t, 1, likes)
}

func TestCommentStore_UnlikeKeepsOtherEntries(t *testing.T) {
	ctx := context.Background()
	store := NewCommentStore()

	_, _ = store.ToggleLike(ctx, &entities.Comment{ID: "l1", IssueID: "i", UserID: "u1"})
	_, _ = store.ToggleLike(ctx, &entities.Comment{ID: "l2", IssueID: "i", UserID: "u2"})
	_, _ = store.ToggleLike(ctx, &entities.Comment{ID: "l3", IssueID: "i", UserID: "u1"})

	likes, _ := store.CountLikes(ctx, "i")
	assert.Equal(t, 1, likes)
}

func TestCommentStore_CountByIssues(t *testing.T) {
	ctx := context.Background()
	store := NewCommentStore()

	require.NoError(t, store.Add(ctx, &entities.Comment{ID: "c1", IssueID: "a", UserID: "u1", Content: "hi"}))
	_, _ = store.ToggleLike(ctx, &entities.Comment{ID: "l1", IssueID: "a", UserID: "u1"})
	_, _ = store.ToggleLike(ctx, &entities.Comment{ID: "l2", IssueID: "a", UserID: "u2"})
	_, _ = store.ToggleLike(ctx, &entities.Comment{ID: "l3", IssueID: "b", UserID: "u1"})

	counts, err := store.CountByIssues(ctx, []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, entities.EngagementCounts{Likes: 2, Comments: 1}, counts["a"])
	assert.Equal(t, entities.EngagementCounts{Likes: 1}, counts["b"])
	assert.Zero(t, counts["c"])
}
