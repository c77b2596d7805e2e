package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
)

const tokenIssuer = "civic-reporter"

// ErrInvalidToken is returned for malformed, tampered or expired tokens
var ErrInvalidToken = errors.New("invalid session token")

// Claims names a session. The session snapshot itself stays server side.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTTokenIssuer signs session tokens with HS256
type JWTTokenIssuer struct {
	secret []byte
}

var _ providers.TokenIssuer = (*JWTTokenIssuer)(nil)

// NewJWTTokenIssuer creates an issuer. An empty secret is replaced by random
// bytes, so tokens do not survive a restart.
func NewJWTTokenIssuer(secret string) (*JWTTokenIssuer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	return &JWTTokenIssuer{secret: key}, nil
}

// Issue returns a signed token whose ID is the session ID
func (j *JWTTokenIssuer) Issue(session *entities.Session) (string, error) {
	if session == nil || session.ID == "" {
		return "", fmt.Errorf("session is required")
	}

	claims := Claims{
		UserID: session.User.ID,
		Role:   string(session.User.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       session.ID,
			Issuer:   tokenIssuer,
			Subject:  session.User.ID,
			IssuedAt: jwt.NewNumericDate(session.CreatedAt),
		},
	}
	if !session.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(session.ExpiresAt)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the session ID it names
func (j *JWTTokenIssuer) Parse(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
