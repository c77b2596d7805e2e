package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	redisclient "github.com/civicpulse/reporter/backend/internal/infrastructure/clients/redis"
)

// subscriberBuffer is sized for a reindex-speed consumer; the indexer drains
// it continuously.
const subscriberBuffer = 256

// topic is one Redis channel and the local listeners fed from it
type topic struct {
	name      string
	pubsub    *redis.PubSub
	listeners map[chan *entities.IssueEvent]struct{}
}

// RedisEventBus carries issue events between API instances over Redis pub/sub
type RedisEventBus struct {
	client *redisclient.Client

	mu     sync.Mutex
	topics map[string]*topic
	closed bool

	dropped atomic.Int64
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// NewRedisEventBus creates an event bus on the given client
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	return &RedisEventBus{
		client: client,
		topics: make(map[string]*topic),
	}
}

// Publish sends the event to every instance subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.IssueEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode issue event: %w", err)
	}
	if err := b.client.Client().Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish issue event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("issue_id", event.IssueID).
		Str("type", string(event.EventType)).
		Msg("issue event published")
	return nil
}

// Subscribe returns a channel of events that is closed when ctx ends,
// Unsubscribe is called for the channel, or the bus closes.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.IssueEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("event bus is closed")
	}

	t, ok := b.topics[channel]
	if !ok {
		pubsub := b.client.Client().Subscribe(context.Background(), channel)
		// Wait for the subscription confirmation so no publish is missed
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		t = &topic{name: channel, pubsub: pubsub, listeners: make(map[chan *entities.IssueEvent]struct{})}
		b.topics[channel] = t
		go b.pump(t)
	}

	listener := make(chan *entities.IssueEvent, subscriberBuffer)
	t.listeners[listener] = struct{}{}

	go func() {
		<-ctx.Done()
		b.detach(channel, listener)
	}()

	return listener, nil
}

// Unsubscribe drops every local listener on channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	t, ok := b.topics[channel]
	if ok {
		delete(b.topics, channel)
		for listener := range t.listeners {
			close(listener)
		}
		t.listeners = nil
	}
	b.mu.Unlock()

	if !ok {
		return nil
	}
	return t.pubsub.Close()
}

// Close unsubscribes from every channel; later Subscribe calls fail
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	b.closed = true
	names := make([]string, 0, len(b.topics))
	for name := range b.topics {
		names = append(names, name)
	}
	b.mu.Unlock()

	var errs []error
	for _, name := range names {
		if err := b.Unsubscribe(context.Background(), name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dropped reports how many events were discarded because a listener was full
func (b *RedisEventBus) Dropped() int64 {
	return b.dropped.Load()
}

// pump decodes messages from Redis and hands them to the topic's listeners
// until the subscription is closed.
func (b *RedisEventBus) pump(t *topic) {
	for msg := range t.pubsub.Channel() {
		var event entities.IssueEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Str("channel", t.name).Msg("dropping malformed issue event")
			continue
		}

		b.mu.Lock()
		for listener := range t.listeners {
			select {
			case listener <- &event:
			default:
				b.dropped.Add(1)
				log.Warn().Str("channel", t.name).Str("issue_id", event.IssueID).Msg("issue event listener full, event dropped")
			}
		}
		b.mu.Unlock()
	}
}

func (b *RedisEventBus) detach(channel string, listener chan *entities.IssueEvent) {
	b.mu.Lock()
	t, ok := b.topics[channel]
	if !ok {
		b.mu.Unlock()
		return
	}
	if _, ok := t.listeners[listener]; !ok {
		b.mu.Unlock()
		return
	}
	delete(t.listeners, listener)
	close(listener)

	last := len(t.listeners) == 0
	if last {
		delete(b.topics, channel)
	}
	b.mu.Unlock()

	if last {
		_ = t.pubsub.Close()
	}
}
