package providers

import (
	"context"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to issue events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.IssueEvent) error

	// Subscribe subscribes to events on a channel until ctx is cancelled
	Subscribe(ctx context.Context, channel string) (<-chan *entities.IssueEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelIssueUpdates carries every issue change
const EventChannelIssueUpdates = "issues:updates"
