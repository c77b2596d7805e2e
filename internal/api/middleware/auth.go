package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

type ctxKey string

const sessionKey ctxKey = "session"

// SessionResolver restores a session from a bearer token
type SessionResolver interface {
	RestoreSession(ctx context.Context, token string) *entities.Session
}

// Authenticate attaches the caller's session, if any, to the request
// context. Requests without a valid token continue as anonymous.
func Authenticate(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := BearerToken(r); token != "" {
				if session := resolver.RestoreSession(r.Context(), token); session != nil {
					r = r.WithContext(WithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from the Authorization header
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// WithSession returns a context carrying session
func WithSession(ctx context.Context, session *entities.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the caller's session, or nil for anonymous callers
func SessionFromContext(ctx context.Context) *entities.Session {
	session, _ := ctx.Value(sessionKey).(*entities.Session)
	return session
}
