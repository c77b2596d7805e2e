package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/api/handlers"
	"github.com/civicpulse/reporter/backend/internal/api/middleware"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// MockAuthService is a mock implementation of handlers.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input services.RegisterInput) (*entities.User, *entities.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entities.User), args.Get(1).(*entities.Session), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*entities.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Session), args.Error(1)
}

func (m *MockAuthService) SignOut(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testSession(role entities.Role) *entities.Session {
	return &entities.Session{
		ID:        "session-1",
		User:      entities.SessionUser{ID: "user-1", Email: "ana@example.com", Name: "Ana", Role: role},
		Valid:     true,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
		Token:     "token-1",
	}
}

func withSession(req *http.Request, session *entities.Session) *http.Request {
	return req.WithContext(middleware.WithSession(req.Context(), session))
}

func TestAuthHandler_Register(t *testing.T) {
	mockService := new(MockAuthService)
	handler := handlers.NewAuthHandler(mockService)

	session := testSession(entities.RoleCitizen)
	user := &entities.User{ID: "user-1", Email: "ana@example.com", Name: "Ana", Role: entities.RoleCitizen}
	mockService.On("Register", mock.Anything, mock.MatchedBy(func(in services.RegisterInput) bool {
		return in.Email == "ana@example.com" && in.Role == entities.RoleCitizen && in.PasswordConfirmation == "secret1"
	})).Return(user, session, nil)

	body := `{"name":"Ana","email":"ana@example.com","password":"secret1","password_confirmation":"secret1","role":"citizen"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	handler.Register(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "token-1", data["token"])
	assert.NotContains(t, string(resp.Data), "password")
	mockService.AssertExpectations(t)
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	mockService := new(MockAuthService)
	handler := handlers.NewAuthHandler(mockService)
	mockService.On("Register", mock.Anything, mock.Anything).
		Return(nil, nil, apperrors.NewConflictError("email already registered"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"email":"a@b.c"}`))
	w := httptest.NewRecorder()

	handler.Register(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "email already registered", resp.Message)
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	mockService := new(MockAuthService)
	handler := handlers.NewAuthHandler(mockService)
	mockService.On("Login", mock.Anything, "ana@example.com", "wrong").
		Return(nil, apperrors.NewAuthenticationError("invalid email or password"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"ana@example.com","password":"wrong"}`))
	w := httptest.NewRecorder()

	handler.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid email or password", resp.Message)
}

func TestAuthHandler_LoginInvalidJSON(t *testing.T) {
	handler := handlers.NewAuthHandler(new(MockAuthService))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{`))
	w := httptest.NewRecorder()

	handler.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_LogoutPassesBearerToken(t *testing.T) {
	mockService := new(MockAuthService)
	handler := handlers.NewAuthHandler(mockService)
	mockService.On("SignOut", mock.Anything, "token-1").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	w := httptest.NewRecorder()

	handler.Logout(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestAuthHandler_Session(t *testing.T) {
	handler := handlers.NewAuthHandler(new(MockAuthService))

	t.Run("anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		w := httptest.NewRecorder()

		handler.Session(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
	})

	t.Run("signed in", func(t *testing.T) {
		req := withSession(httptest.NewRequest(http.MethodGet, "/api/auth/session", nil), testSession(entities.RoleAdmin))
		w := httptest.NewRecorder()

		handler.Session(w, req)

		var resp envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Contains(t, string(resp.Data), `"role":"admin"`)
		assert.NotContains(t, string(resp.Data), "token-1")
	})
}
