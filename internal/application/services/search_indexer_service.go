package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
)

// SearchIndexerService keeps the search index in step with issue events
type SearchIndexerService struct {
	issues   repositories.IssueRepository
	search   repositories.IssueSearchRepository
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewSearchIndexerService creates a new search indexer
func NewSearchIndexerService(issues repositories.IssueRepository, search repositories.IssueSearchRepository, eventBus providers.EventBus) *SearchIndexerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SearchIndexerService{
		issues:   issues,
		search:   search,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start subscribes to issue updates and indexes changed issues
func (s *SearchIndexerService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelIssueUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to issue updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Msg("search indexer started")
	return nil
}

// Stop stops the indexer and waits for the event loop to exit
func (s *SearchIndexerService) Stop() {
	s.cancel()
	if !s.started {
		return
	}
	<-s.done
	log.Info().Msg("search indexer stopped")
}

// Reindex indexes every stored issue
func (s *SearchIndexerService) Reindex(ctx context.Context) (int, error) {
	issues, err := s.issues.List(ctx, repositories.IssueFilter{})
	if err != nil {
		return 0, err
	}
	indexed := 0
	for _, issue := range issues {
		if err := s.search.Index(ctx, issue); err != nil {
			log.Warn().Err(err).Str("issue_id", issue.ID).Msg("failed to index issue")
			continue
		}
		indexed++
	}
	return indexed, nil
}

func (s *SearchIndexerService) processEvents(eventChan <-chan *entities.IssueEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *SearchIndexerService) handleEvent(event *entities.IssueEvent) {
	// likes and comments do not change indexed fields
	if event.EventType == entities.IssueEventEngagementChanged {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	issue, err := s.issues.GetByID(ctx, event.IssueID)
	if err != nil {
		log.Warn().Err(err).Str("issue_id", event.IssueID).Msg("failed to load issue for indexing")
		return
	}
	if err := s.search.Index(ctx, issue); err != nil {
		log.Warn().Err(err).Str("issue_id", issue.ID).Msg("failed to index issue")
		return
	}
	log.Debug().Str("issue_id", issue.ID).Str("event", string(event.EventType)).Msg("issue indexed")
}
