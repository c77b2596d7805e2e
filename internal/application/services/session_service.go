package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

const (
	minPasswordLength      = 6
	invalidCredentialsText = "invalid email or password"
	defaultSessionTTL      = 7 * 24 * time.Hour
)

// SessionConfig holds registration and session lifetime settings
type SessionConfig struct {
	InstitutionSecret string
	TTL               time.Duration
}

// RegisterInput is a self-registration request
type RegisterInput struct {
	Email                string
	Password             string
	PasswordConfirmation string
	Name                 string
	Role                 entities.Role
	Secret               string
}

// SessionService authenticates users and manages their sessions
type SessionService struct {
	users    repositories.UserRepository
	store    providers.SessionStore
	tokens   providers.TokenIssuer
	hasher   providers.PasswordHasher
	validate *validator.Validate
	cfg      SessionConfig
	now      func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(
	users repositories.UserRepository,
	store providers.SessionStore,
	tokens providers.TokenIssuer,
	hasher providers.PasswordHasher,
	cfg SessionConfig,
) *SessionService {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	return &SessionService{
		users:    users,
		store:    store,
		tokens:   tokens,
		hasher:   hasher,
		validate: validator.New(),
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login checks credentials and opens a session. Unknown email and wrong
// password produce the same error.
func (s *SessionService) Login(ctx context.Context, email, password string) (*entities.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewAuthenticationError(invalidCredentialsText)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			log.Debug().Str("email", email).Msg("login rejected: unknown email")
			return nil, apperrors.NewAuthenticationError(invalidCredentialsText)
		}
		return nil, asTransportError("credential store unavailable", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		log.Debug().Str("user_id", user.ID).Msg("login rejected: wrong password")
		return nil, apperrors.NewAuthenticationError(invalidCredentialsText)
	}

	return s.openSession(ctx, user)
}

// Register validates input, creates the user and opens a session
func (s *SessionService) Register(ctx context.Context, input RegisterInput) (*entities.User, *entities.Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)

	if err := s.validateRegistration(&input); err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, nil, apperrors.NewConflictError("email is already registered")
	} else if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, nil, asTransportError("credential store unavailable", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, apperrors.NewInternalError("failed to hash password", err)
	}

	user := &entities.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Name:         input.Name,
		Role:         input.Role,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return nil, nil, err
		}
		return nil, nil, asTransportError("failed to store user", err)
	}

	log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	session, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user.Public(), session, nil
}

func (s *SessionService) validateRegistration(input *RegisterInput) error {
	if err := s.validate.Var(input.Email, "required,email"); err != nil {
		return apperrors.NewValidationError("a valid email is required")
	}
	if input.Name == "" {
		return apperrors.NewValidationError("name is required")
	}
	if len(input.Password) < minPasswordLength {
		return apperrors.NewValidationError("password must be at least 6 characters")
	}
	if input.PasswordConfirmation != "" && input.PasswordConfirmation != input.Password {
		return apperrors.NewValidationError("password confirmation does not match")
	}

	if input.Role == "" {
		input.Role = entities.RoleCitizen
	}
	switch input.Role {
	case entities.RoleCitizen:
	case entities.RoleInstitution:
		if input.Secret != s.cfg.InstitutionSecret {
			return apperrors.NewValidationError("invalid institution secret")
		}
	default:
		return apperrors.NewValidationError("role must be citizen or institution")
	}
	return nil
}

// RestoreSession returns the session named by token, or nil. It never fails
// and never reads the credential store.
func (s *SessionService) RestoreSession(ctx context.Context, token string) *entities.Session {
	if strings.TrimSpace(token) == "" {
		return nil
	}

	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}

	session, err := s.store.Load(ctx, id)
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			log.Warn().Err(err).Msg("session snapshot could not be loaded")
		}
		return nil
	}
	if !session.Active(s.now()) {
		return nil
	}

	session.Token = token
	return session
}

// SignOut ends the session named by token. Unknown or invalid tokens are ignored.
func (s *SessionService) SignOut(ctx context.Context, token string) error {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return asTransportError("failed to remove session", err)
	}
	return nil
}

// EnsureAdmin creates the admin account if no user holds the email yet
func (s *SessionService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != entities.RoleAdmin {
			log.Warn().Str("email", email).Msg("admin email belongs to a non-admin account")
		}
		return nil
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return asTransportError("credential store unavailable", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	admin := &entities.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         entities.RoleAdmin,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, admin); err != nil && !apperrors.IsType(err, apperrors.ErrorTypeConflict) {
		return err
	}
	log.Info().Str("email", email).Msg("admin account ensured")
	return nil
}

func (s *SessionService) openSession(ctx context.Context, user *entities.User) (*entities.Session, error) {
	now := s.now()
	session := &entities.Session{
		ID:        uuid.New().String(),
		User:      entities.NewSessionUser(user),
		Valid:     true,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue session token", err)
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, asTransportError("failed to persist session", err)
	}

	session.Token = token
	return session, nil
}

// asTransportError keeps typed errors and wraps anything else as a transport failure
func asTransportError(message string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewTransportError(message, err)
}
