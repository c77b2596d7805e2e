package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/observability"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// EngagementService records likes and comments on issues
type EngagementService struct {
	comments repositories.CommentRepository
	issues   repositories.IssueRepository
	locker   *IssueLocker
	eventBus providers.EventBus
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewEngagementService creates a new engagement service. Pass the issue
// service's locker so engagement and status writes share one queue per issue.
func NewEngagementService(comments repositories.CommentRepository, issues repositories.IssueRepository, locker *IssueLocker) *EngagementService {
	if locker == nil {
		locker = NewIssueLocker()
	}
	return &EngagementService{
		comments: comments,
		issues:   issues,
		locker:   locker,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetEventBus publishes engagement changes to bus
func (s *EngagementService) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

// SetMetrics records like toggles to m
func (s *EngagementService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// ToggleLike flips the session user's like on an issue
func (s *EngagementService) ToggleLike(ctx context.Context, session *entities.Session, issueID string) (*entities.LikeResult, error) {
	if err := s.requireSession(session); err != nil {
		return nil, err
	}
	if err := s.requireIssue(ctx, issueID); err != nil {
		return nil, err
	}

	unlock := s.locker.Lock(issueID)
	liked, err := s.comments.ToggleLike(ctx, &entities.Comment{
		ID:        uuid.New().String(),
		IssueID:   issueID,
		UserID:    session.UserID(),
		CreatedAt: s.now(),
	})
	var count int
	if err == nil {
		count, err = s.comments.CountLikes(ctx, issueID)
	}
	unlock()
	if err != nil {
		return nil, err
	}

	observability.RecordLikeToggle(ctx, s.metrics, liked)
	s.publish(ctx, issueID)
	return &entities.LikeResult{Liked: liked, Count: count}, nil
}

// AddComment appends a content comment
func (s *EngagementService) AddComment(ctx context.Context, session *entities.Session, issueID, content string) (*entities.Comment, error) {
	if err := s.requireSession(session); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required")
	}
	if err := s.requireIssue(ctx, issueID); err != nil {
		return nil, err
	}

	comment := &entities.Comment{
		ID:        uuid.New().String(),
		IssueID:   issueID,
		UserID:    session.UserID(),
		Content:   content,
		CreatedAt: s.now(),
	}

	unlock := s.locker.Lock(issueID)
	err := s.comments.Add(ctx, comment)
	unlock()
	if err != nil {
		return nil, err
	}

	s.publish(ctx, issueID)
	return comment, nil
}

// ListComments returns an issue's content comments oldest first
func (s *EngagementService) ListComments(ctx context.Context, issueID string) ([]*entities.Comment, error) {
	if err := s.requireIssue(ctx, issueID); err != nil {
		return nil, err
	}
	return s.comments.ListComments(ctx, issueID)
}

// LikeCount returns the number of likes on an issue
func (s *EngagementService) LikeCount(ctx context.Context, issueID string) (int, error) {
	return s.comments.CountLikes(ctx, issueID)
}

// CommentCount returns the number of content comments on an issue
func (s *EngagementService) CommentCount(ctx context.Context, issueID string) (int, error) {
	return s.comments.CountComments(ctx, issueID)
}

// Counts returns likes and comments for many issues at once
func (s *EngagementService) Counts(ctx context.Context, issueIDs []string) (map[string]entities.EngagementCounts, error) {
	return s.comments.CountByIssues(ctx, issueIDs)
}

func (s *EngagementService) requireSession(session *entities.Session) error {
	if !session.Active(s.now()) {
		return apperrors.NewAuthenticationError("sign in to engage with issues")
	}
	return nil
}

func (s *EngagementService) requireIssue(ctx context.Context, issueID string) error {
	if strings.TrimSpace(issueID) == "" {
		return apperrors.NewValidationError("issue id is required")
	}
	_, err := s.issues.GetByID(ctx, issueID)
	return err
}

func (s *EngagementService) publish(ctx context.Context, issueID string) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewIssueEvent(issueID, entities.IssueEventEngagementChanged, "")
	if err := s.eventBus.Publish(ctx, providers.EventChannelIssueUpdates, event); err != nil {
		log.Warn().Err(err).Str("issue_id", issueID).Msg("failed to publish engagement event")
	}
}
