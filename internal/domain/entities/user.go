package entities

import (
	"time"
)

// Role is the fixed permission level of a user
type Role string

const (
	RoleCitizen     Role = "citizen"
	RoleInstitution Role = "institution"
	RoleAdmin       Role = "admin"
)

// ExperiencePerLevel is the experience needed to advance one level
const ExperiencePerLevel = 100

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleInstitution, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered community member
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	Level        int       `json:"level" db:"level"`
	Experience   int       `json:"experience" db:"experience"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// AwardExperience adds points and recomputes the level. Negative awards are ignored.
func (u *User) AwardExperience(points int) {
	if points <= 0 {
		return
	}
	u.Experience += points
	u.Level = u.Experience / ExperiencePerLevel
}

// Public returns a copy of the user without the credential hash
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}
