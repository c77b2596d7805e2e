package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/civicpulse/reporter/backend/internal/api/middleware"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// AuthService defines the session operations used by the handler
type AuthService interface {
	Register(ctx context.Context, input services.RegisterInput) (*entities.User, *entities.Session, error)
	Login(ctx context.Context, email, password string) (*entities.Session, error)
	SignOut(ctx context.Context, token string) error
}

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	service AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`
	Secret               string `json:"secret"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionData struct {
	User      entities.SessionUser `json:"user"`
	Token     string               `json:"token,omitempty"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

func newSessionData(session *entities.Session) sessionData {
	data := sessionData{User: session.User, Token: session.Token}
	if !session.ExpiresAt.IsZero() {
		expires := session.ExpiresAt
		data.ExpiresAt = &expires
	}
	return data
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: "invalid request payload"})
		return
	}

	_, session, err := h.service.Register(r.Context(), services.RegisterInput{
		Email:                payload.Email,
		Password:             payload.Password,
		PasswordConfirmation: payload.PasswordConfirmation,
		Name:                 payload.Name,
		Role:                 entities.Role(payload.Role),
		Secret:               payload.Secret,
	})
	if err != nil {
		respondWithAuthError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "registration successful",
		Data:    newSessionData(session),
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithJSON(w, http.StatusBadRequest, authResponse{Success: false, Message: "invalid request payload"})
		return
	}

	session, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		respondWithAuthError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "login successful",
		Data:    newSessionData(session),
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), middleware.BearerToken(r)); err != nil {
		respondWithAuthError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, authResponse{Success: true, Message: "signed out"})
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		respondWithJSON(w, http.StatusOK, authResponse{Success: false, Message: "not signed in"})
		return
	}
	data := newSessionData(session)
	data.Token = ""
	respondWithJSON(w, http.StatusOK, authResponse{Success: true, Data: data})
}
