package memory

import (
	"context"
	"sync"
	"time"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// SessionStore keeps session snapshots in process memory
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]entities.Session
	now      func() time.Time
}

var _ providers.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty session store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]entities.Session),
		now:      time.Now,
	}
}

// Save stores the snapshot
func (s *SessionStore) Save(ctx context.Context, session *entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := *session
	snapshot.Token = ""
	s.sessions[session.ID] = snapshot
	return nil
}

// Load returns the snapshot unless it has expired
func (s *SessionStore) Load(ctx context.Context, id string) (*entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("session not found")
	}
	if !snapshot.ExpiresAt.IsZero() && !s.now().Before(snapshot.ExpiresAt) {
		delete(s.sessions, id)
		return nil, apperrors.NewNotFoundError("session expired")
	}
	return &snapshot, nil
}

// Delete removes the snapshot
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
