package repositories

import (
	"context"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user. Returns a ConflictError if the email is taken.
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByIDs retrieves users by IDs; unknown IDs are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// UpdateProgress stores a user's level and experience
	UpdateProgress(ctx context.Context, id string, level, experience int) error
}
