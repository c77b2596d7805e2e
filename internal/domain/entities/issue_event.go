package entities

import (
	"time"

	"github.com/google/uuid"
)

// IssueEventType represents the type of issue event
type IssueEventType string

const (
	IssueEventCreated           IssueEventType = "issue_created"
	IssueEventStatusChanged     IssueEventType = "status_changed"
	IssueEventEngagementChanged IssueEventType = "engagement_changed"
)

// IssueEvent records a change to an issue for internal consumers such as the
// search indexer
type IssueEvent struct {
	ID        string         `json:"id"`
	IssueID   string         `json:"issue_id"`
	EventType IssueEventType `json:"event_type"`
	Status    Status         `json:"status,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewIssueEvent creates a new issue event
func NewIssueEvent(issueID string, eventType IssueEventType, status Status) *IssueEvent {
	return &IssueEvent{
		ID:        uuid.New().String(),
		IssueID:   issueID,
		EventType: eventType,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}
