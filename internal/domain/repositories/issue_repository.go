package repositories

import (
	"context"
	"time"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// IssueFilter narrows an issue listing. A zero Status selects every issue.
type IssueFilter struct {
	Status entities.Status
}

// IssueRepository defines the interface for issue data operations
type IssueRepository interface {
	// Create stores a new issue
	Create(ctx context.Context, issue *entities.Issue) error

	// GetByID retrieves an issue by ID
	GetByID(ctx context.Context, id string) (*entities.Issue, error)

	// List returns issues newest first
	List(ctx context.Context, filter IssueFilter) ([]*entities.Issue, error)

	// UpdateStatus applies a status unconditionally and returns the updated issue
	UpdateStatus(ctx context.Context, id string, status entities.Status, updatedAt time.Time) (*entities.Issue, error)
}

// IssueSearchParams defines full-text search parameters
type IssueSearchParams struct {
	Query  string
	Status entities.Status
	Limit  int
}

// IssueSearchRepository defines the interface for the issue search index
type IssueSearchRepository interface {
	// Index upserts an issue into the search index
	Index(ctx context.Context, issue *entities.Issue) error

	// Delete removes an issue from the index
	Delete(ctx context.Context, id string) error

	// Search returns matching issue IDs, best match first
	Search(ctx context.Context, params IssueSearchParams) ([]string, error)
}
