package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/civicpulse/reporter/backend/internal/api/middleware"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// ModerationService defines the admin operations used by the handler
type ModerationService interface {
	Summary(ctx context.Context, session *entities.Session, filter string) (*services.ModerationSummary, error)
	UpdateStatus(ctx context.Context, session *entities.Session, issueID string, status entities.Status) (*entities.Issue, error)
}

// ModerationHandler handles the admin issue view
type ModerationHandler struct {
	service ModerationService
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(service ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// Summary handles GET /api/admin/issues?status=
func (h *ModerationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), middleware.SessionFromContext(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// UpdateStatus handles PATCH /api/admin/issues/{id}/status
func (h *ModerationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	issue, err := h.service.UpdateStatus(r.Context(), middleware.SessionFromContext(r.Context()), r.PathValue("id"), entities.Status(payload.Status))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, issue)
}
