package entities

import (
	"time"
)

// Comment is an engagement entry on an issue. An entry with empty content is
// a like marker; each user holds at most one per issue.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	IssueID   string    `json:"issueId" db:"issue_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// IsLike reports whether the entry is a like marker
func (c *Comment) IsLike() bool {
	return c.Content == ""
}

// EngagementCounts totals the like markers and content comments on an issue
type EngagementCounts struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

// LikeResult is the state after a like toggle
type LikeResult struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}
