package repositories

import (
	"context"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// CommentRepository defines the engagement ledger storage. Likes are comments
// with empty content, at most one per (issue, user).
type CommentRepository interface {
	// Add appends a content comment
	Add(ctx context.Context, comment *entities.Comment) error

	// ToggleLike removes the like marker for (like.IssueID, like.UserID) if
	// present, otherwise stores like. Returns whether a like now exists.
	ToggleLike(ctx context.Context, like *entities.Comment) (bool, error)

	// ListComments returns content comments in creation order
	ListComments(ctx context.Context, issueID string) ([]*entities.Comment, error)

	// CountLikes returns the number of like markers on an issue
	CountLikes(ctx context.Context, issueID string) (int, error)

	// CountComments returns the number of content comments on an issue
	CountComments(ctx context.Context, issueID string) (int, error)

	// CountByIssues returns likes and comments for each issue in one read.
	// Issues without entries are absent from the map.
	CountByIssues(ctx context.Context, issueIDs []string) (map[string]entities.EngagementCounts, error)
}
