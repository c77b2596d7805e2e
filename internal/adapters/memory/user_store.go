package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// UserStore is an in-process credential store
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*entities.User
	byEmail map[string]string
}

var _ repositories.UserRepository = (*UserStore)(nil)

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*entities.User),
		byEmail: make(map[string]string),
	}
}

// Create creates a new user
func (s *UserStore) Create(ctx context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := s.byEmail[email]; exists {
		return apperrors.NewConflictError("email already registered")
	}

	cp := *user
	cp.Email = email
	s.byID[cp.ID] = &cp
	s.byEmail[email] = cp.ID
	return nil
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(ctx context.Context, id string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	cp := *user
	return &cp, nil
}

// GetByIDs retrieves users by IDs
func (s *UserStore) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*entities.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.byID[id]; ok {
			cp := *user
			users = append(users, &cp)
		}
	}
	return users, nil
}

// GetByEmail retrieves a user by email
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	cp := *s.byID[id]
	return &cp, nil
}

// UpdateProgress stores a user's level and experience
func (s *UserStore) UpdateProgress(ctx context.Context, id string, level, experience int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return apperrors.NewNotFoundError("user not found")
	}
	user.Level = level
	user.Experience = experience
	return nil
}
