package providers

import (
	"context"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// SessionStore persists session snapshots so they can be restored without
// contacting the credential store.
type SessionStore interface {
	// Save stores the snapshot until its ExpiresAt
	Save(ctx context.Context, session *entities.Session) error

	// Load returns the snapshot, or a NotFoundError
	Load(ctx context.Context, id string) (*entities.Session, error)

	// Delete removes the snapshot; deleting a missing snapshot is not an error
	Delete(ctx context.Context, id string) error
}

// TokenIssuer signs and verifies the bearer tokens that name a session
type TokenIssuer interface {
	// Issue returns a signed token for the session
	Issue(session *entities.Session) (string, error)

	// Parse verifies token and returns the session ID it names
	Parse(token string) (string, error)
}
