package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/observability"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// ExperiencePerReport is awarded to the reporter of every accepted issue
const ExperiencePerReport = 10

// CreateIssueInput holds the fields of a new report
type CreateIssueInput struct {
	Category    entities.Category
	Description string
	Latitude    float64
	Longitude   float64
	ReporterID  string
	ImageRef    string
	Address     string

	// SessionID names the reporter's session whose snapshot is refreshed
	// after the experience award. Optional.
	SessionID string
}

// IssueService owns the issue lifecycle
type IssueService struct {
	issues   repositories.IssueRepository
	users    repositories.UserRepository
	search   repositories.IssueSearchRepository
	sessions providers.SessionStore
	locker   *IssueLocker
	eventBus providers.EventBus
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewIssueService creates a new issue service. users may be nil, in which
// case no experience is awarded.
func NewIssueService(issues repositories.IssueRepository, users repositories.UserRepository, locker *IssueLocker) *IssueService {
	if locker == nil {
		locker = NewIssueLocker()
	}
	return &IssueService{
		issues: issues,
		users:  users,
		locker: locker,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetSearch enables full-text search through an index
func (s *IssueService) SetSearch(search repositories.IssueSearchRepository) {
	s.search = search
}

// SetSessionStore lets awards refresh the level and experience carried by
// the reporter's stored session snapshot
func (s *IssueService) SetSessionStore(store providers.SessionStore) {
	s.sessions = store
}

// SetEventBus publishes issue changes to bus
func (s *IssueService) SetEventBus(bus providers.EventBus) {
	s.eventBus = bus
}

// SetMetrics records issue counters to m
func (s *IssueService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// Locker returns the per-issue write queue shared with other writers
func (s *IssueService) Locker() *IssueLocker {
	return s.locker
}

// Create validates and stores a new open issue
func (s *IssueService) Create(ctx context.Context, input CreateIssueInput) (*entities.Issue, error) {
	ctx, span := observability.StartSpan(ctx, "IssueService.Create")
	defer span.End()

	if strings.TrimSpace(input.ReporterID) == "" {
		return nil, apperrors.NewValidationError("reporter is required")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description is required")
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category")
	}
	coords := entities.Coordinates{Latitude: input.Latitude, Longitude: input.Longitude}
	if !coords.Valid() {
		return nil, apperrors.NewValidationError("coordinate out of range")
	}

	now := s.now()
	issue := &entities.Issue{
		ID:          uuid.New().String(),
		Category:    input.Category,
		Description: description,
		Latitude:    coords.Latitude,
		Longitude:   coords.Longitude,
		Status:      entities.StatusOpen,
		ImageRef:    strings.TrimSpace(input.ImageRef),
		ReporterID:  input.ReporterID,
		Address:     strings.TrimSpace(input.Address),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSpanAttributes(span,
		attribute.String("issue.id", issue.ID),
		attribute.String("issue.category", string(issue.Category)),
	)

	s.awardExperience(ctx, issue.ReporterID, input.SessionID)
	s.publish(ctx, issue, entities.IssueEventCreated)
	return issue, nil
}

// awardExperience credits the reporter. Failures are logged only.
func (s *IssueService) awardExperience(ctx context.Context, userID, sessionID string) {
	if s.users == nil || userID == "" {
		return
	}

	unlock := s.locker.Lock("user:" + userID)
	defer unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to load reporter for experience award")
		return
	}
	user.AwardExperience(ExperiencePerReport)
	if err := s.users.UpdateProgress(ctx, user.ID, user.Level, user.Experience); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to award reporter experience")
		return
	}
	s.refreshSnapshot(ctx, sessionID, user)
}

// refreshSnapshot copies the awarded progress into the reporter's stored
// session. Other sessions of the same user keep their values until the
// next login.
func (s *IssueService) refreshSnapshot(ctx context.Context, sessionID string, user *entities.User) {
	if s.sessions == nil || sessionID == "" {
		return
	}

	snapshot, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", sessionID).Msg("no session snapshot to refresh")
		return
	}
	if snapshot.User.ID != user.ID {
		return
	}
	snapshot.User.Level = user.Level
	snapshot.User.Experience = user.Experience
	if err := s.sessions.Save(ctx, snapshot); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to refresh session snapshot")
	}
}

// ParseStatusFilter turns a listing filter into a status. "" and "all"
// select every status.
func ParseStatusFilter(filter string) (entities.Status, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" || filter == entities.StatusFilterAll {
		return "", nil
	}
	status := entities.Status(filter)
	if !status.Valid() {
		return "", apperrors.NewValidationError("unknown status filter: " + filter)
	}
	return status, nil
}

// List returns issues newest first, optionally narrowed to one status
func (s *IssueService) List(ctx context.Context, filter string) ([]*entities.Issue, error) {
	status, err := ParseStatusFilter(filter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	issues, err := s.issues.List(ctx, repositories.IssueFilter{Status: status})
	observability.RecordDBMetric(ctx, s.metrics, "issues.list", time.Since(start))
	return issues, err
}

// Get returns one issue
func (s *IssueService) Get(ctx context.Context, id string) (*entities.Issue, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidationError("issue id is required")
	}
	return s.issues.GetByID(ctx, id)
}

// SetStatus applies any known status, including backward moves
func (s *IssueService) SetStatus(ctx context.Context, id string, status entities.Status) (*entities.Issue, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status: " + string(status))
	}

	unlock := s.locker.Lock(id)
	issue, err := s.issues.UpdateStatus(ctx, id, status, s.now())
	unlock()
	if err != nil {
		return nil, err
	}

	log.Info().Str("issue_id", id).Str("status", string(status)).Msg("issue status changed")
	s.publish(ctx, issue, entities.IssueEventStatusChanged)
	return issue, nil
}

// Search matches query against descriptions and addresses. Without a search
// index, or when the index fails, it scans the listing.
func (s *IssueService) Search(ctx context.Context, query, filter string) ([]*entities.Issue, error) {
	status, err := ParseStatusFilter(filter)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, filter)
	}

	if s.search != nil {
		ids, err := s.search.Search(ctx, repositories.IssueSearchParams{Query: query, Status: status})
		if err == nil {
			return s.resolve(ctx, ids)
		}
		log.Warn().Err(err).Msg("issue search index failed, scanning listing")
	}

	issues, err := s.issues.List(ctx, repositories.IssueFilter{Status: status})
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matches := []*entities.Issue{}
	for _, issue := range issues {
		if strings.Contains(strings.ToLower(issue.Description), needle) ||
			strings.Contains(strings.ToLower(issue.Address), needle) {
			matches = append(matches, issue)
		}
	}
	return matches, nil
}

func (s *IssueService) resolve(ctx context.Context, ids []string) ([]*entities.Issue, error) {
	issues := make([]*entities.Issue, 0, len(ids))
	for _, id := range ids {
		issue, err := s.issues.GetByID(ctx, id)
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

func (s *IssueService) publish(ctx context.Context, issue *entities.Issue, eventType entities.IssueEventType) {
	observability.RecordIssueEvent(ctx, s.metrics, string(eventType), string(issue.Status))
	if s.eventBus == nil {
		return
	}
	event := entities.NewIssueEvent(issue.ID, eventType, issue.Status)
	if err := s.eventBus.Publish(ctx, providers.EventChannelIssueUpdates, event); err != nil {
		log.Warn().Err(err).Str("issue_id", issue.ID).Msg("failed to publish issue event")
	}
}
