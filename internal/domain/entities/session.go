package entities

import (
	"time"
)

// SessionUser is the user snapshot carried by a session. It never holds the
// credential hash.
type SessionUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Level      int    `json:"level"`
	Experience int    `json:"experience"`
}

// NewSessionUser snapshots the public fields of u
func NewSessionUser(u *User) SessionUser {
	return SessionUser{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Level:      u.Level,
		Experience: u.Experience,
	}
}

// Session is the authenticated identity of one client
type Session struct {
	ID        string      `json:"id"`
	User      SessionUser `json:"user"`
	Valid     bool        `json:"valid"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`

	// Token is the bearer credential handed to the client. It is not part of
	// the persisted snapshot.
	Token string `json:"-"`
}

// Active reports whether the session can still act at the given time
func (s *Session) Active(now time.Time) bool {
	if s == nil || !s.Valid {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// IsAdmin reports whether the session belongs to an admin
func (s *Session) IsAdmin() bool {
	return s != nil && s.User.Role == RoleAdmin
}

// UserID returns the acting user's ID, or "" for an anonymous actor
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.User.ID
}
