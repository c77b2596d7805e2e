package services

import (
	"context"
	"strings"
	"time"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// ModerationSummary is the admin overview of all issues
type ModerationSummary struct {
	Total      int               `json:"total"`
	Open       int               `json:"open"`
	InProgress int               `json:"in_progress"`
	Resolved   int               `json:"resolved"`
	Filter     string            `json:"filter"`
	Issues     []*entities.Issue `json:"issues"`
}

// ModerationService lets admins review and move issues through their lifecycle
type ModerationService struct {
	issues *IssueService
}

// NewModerationService creates a new moderation service
func NewModerationService(issues *IssueService) *ModerationService {
	return &ModerationService{issues: issues}
}

// Summary counts issues per status from a fresh listing and returns the
// issues matching filter
func (s *ModerationService) Summary(ctx context.Context, session *entities.Session, filter string) (*ModerationSummary, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	status, err := ParseStatusFilter(filter)
	if err != nil {
		return nil, err
	}

	all, err := s.issues.List(ctx, entities.StatusFilterAll)
	if err != nil {
		return nil, err
	}

	summary := &ModerationSummary{
		Total:  len(all),
		Filter: entities.StatusFilterAll,
		Issues: make([]*entities.Issue, 0, len(all)),
	}
	if status != "" {
		summary.Filter = string(status)
	}
	for _, issue := range all {
		switch issue.Status {
		case entities.StatusOpen:
			summary.Open++
		case entities.StatusInProgress:
			summary.InProgress++
		case entities.StatusResolved:
			summary.Resolved++
		}
		if status == "" || issue.Status == status {
			summary.Issues = append(summary.Issues, issue)
		}
	}
	return summary, nil
}

// UpdateStatus moves an issue to status on behalf of an admin
func (s *ModerationService) UpdateStatus(ctx context.Context, session *entities.Session, issueID string, status entities.Status) (*entities.Issue, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	return s.issues.SetStatus(ctx, strings.TrimSpace(issueID), status)
}

func requireAdmin(session *entities.Session) error {
	if !session.Active(time.Now()) {
		return apperrors.NewAuthenticationError("sign in to moderate issues")
	}
	if !session.IsAdmin() {
		return apperrors.NewAuthorizationError("admin role required")
	}
	return nil
}
