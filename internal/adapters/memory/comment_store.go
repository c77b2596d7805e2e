package memory

import (
	"context"
	"sync"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
)

// CommentStore keeps each issue's comment-and-like list in insertion order
type CommentStore struct {
	mu      sync.RWMutex
	byIssue map[string][]*entities.Comment
}

var _ repositories.CommentRepository = (*CommentStore)(nil)

// NewCommentStore creates an empty ledger
func NewCommentStore() *CommentStore {
	return &CommentStore{byIssue: make(map[string][]*entities.Comment)}
}

// Add appends a content comment
func (s *CommentStore) Add(ctx context.Context, comment *entities.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *comment
	s.byIssue[comment.IssueID] = append(s.byIssue[comment.IssueID], &cp)
	return nil
}

// ToggleLike removes an existing like marker or appends a new one
func (s *CommentStore) ToggleLike(ctx context.Context, like *entities.Comment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.byIssue[like.IssueID]
	for i, entry := range entries {
		if entry.IsLike() && entry.UserID == like.UserID {
			s.byIssue[like.IssueID] = append(entries[:i:i], entries[i+1:]...)
			return false, nil
		}
	}

	cp := *like
	cp.Content = ""
	s.byIssue[like.IssueID] = append(entries, &cp)
	return true, nil
}

// ListComments returns content comments in creation order
func (s *CommentStore) ListComments(ctx context.Context, issueID string) ([]*entities.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*entities.Comment{}
	for _, entry := range s.byIssue[issueID] {
		if entry.IsLike() {
			continue
		}
		cp := *entry
		result = append(result, &cp)
	}
	return result, nil
}

// CountLikes returns the number of like markers on an issue
func (s *CommentStore) CountLikes(ctx context.Context, issueID string) (int, error) {
	return s.count(issueID, true), nil
}

// CountComments returns the number of content comments on an issue
func (s *CommentStore) CountComments(ctx context.Context, issueID string) (int, error) {
	return s.count(issueID, false), nil
}

// CountByIssues returns likes and comments per issue
func (s *CommentStore) CountByIssues(ctx context.Context, issueIDs []string) (map[string]entities.EngagementCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]entities.EngagementCounts, len(issueIDs))
	for _, id := range issueIDs {
		entries := s.byIssue[id]
		if len(entries) == 0 {
			continue
		}
		var c entities.EngagementCounts
		for _, entry := range entries {
			if entry.IsLike() {
				c.Likes++
			} else {
				c.Comments++
			}
		}
		counts[id] = c
	}
	return counts, nil
}

func (s *CommentStore) count(issueID string, likes bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entry := range s.byIssue[issueID] {
		if entry.IsLike() == likes {
			n++
		}
	}
	return n
}
