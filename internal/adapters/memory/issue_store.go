package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// IssueStore is the client-local issue collection
type IssueStore struct {
	mu     sync.RWMutex
	issues []*entities.Issue
	byID   map[string]*entities.Issue
}

var _ repositories.IssueRepository = (*IssueStore)(nil)

// NewIssueStore creates an empty issue store
func NewIssueStore() *IssueStore {
	return &IssueStore{byID: make(map[string]*entities.Issue)}
}

// Create stores a new issue
func (s *IssueStore) Create(ctx context.Context, issue *entities.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[issue.ID]; exists {
		return apperrors.NewConflictError("issue already exists")
	}
	stored := issue.Clone()
	s.issues = append(s.issues, stored)
	s.byID[stored.ID] = stored
	return nil
}

// GetByID retrieves an issue by ID
func (s *IssueStore) GetByID(ctx context.Context, id string) (*entities.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("issue not found")
	}
	return issue.Clone(), nil
}

// List returns issues newest first. Issues created at the same instant are
// ordered by most recent insertion.
func (s *IssueStore) List(ctx context.Context, filter repositories.IssueFilter) ([]*entities.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entities.Issue, 0, len(s.issues))
	for i := len(s.issues) - 1; i >= 0; i-- {
		issue := s.issues[i]
		if filter.Status != "" && issue.Status != filter.Status {
			continue
		}
		result = append(result, issue.Clone())
	}

	slices.SortStableFunc(result, func(a, b *entities.Issue) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

// UpdateStatus applies a status unconditionally
func (s *IssueStore) UpdateStatus(ctx context.Context, id string, status entities.Status, updatedAt time.Time) (*entities.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("issue not found")
	}
	issue.Status = status
	issue.UpdatedAt = updatedAt
	return issue.Clone(), nil
}
