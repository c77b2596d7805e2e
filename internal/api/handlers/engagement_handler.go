package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/civicpulse/reporter/backend/internal/api/loaders"
	"github.com/civicpulse/reporter/backend/internal/api/middleware"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// EngagementService defines the like and comment operations used by the handler
type EngagementService interface {
	ToggleLike(ctx context.Context, session *entities.Session, issueID string) (*entities.LikeResult, error)
	AddComment(ctx context.Context, session *entities.Session, issueID, content string) (*entities.Comment, error)
	ListComments(ctx context.Context, issueID string) ([]*entities.Comment, error)
}

// EngagementHandler handles likes and comments on issues
type EngagementHandler struct {
	service EngagementService
}

// NewEngagementHandler creates a new engagement handler
func NewEngagementHandler(service EngagementService) *EngagementHandler {
	return &EngagementHandler{service: service}
}

// CommentResponse is a comment with its author's display name
type CommentResponse struct {
	*entities.Comment
	UserName string `json:"userName,omitempty"`
}

// ToggleLike handles POST /api/issues/{id}/like
func (h *EngagementHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ToggleLike(r.Context(), middleware.SessionFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// ListComments handles GET /api/issues/{id}/comments
func (h *EngagementHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	userIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		userIDs = append(userIDs, c.UserID)
	}
	names := loaders.UserNames(r.Context(), userIDs)

	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentResponse{Comment: c, UserName: names[c.UserID]})
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"comments": out,
		"count":    len(out),
	})
}

// AddComment handles POST /api/issues/{id}/comments
func (h *EngagementHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	session := middleware.SessionFromContext(r.Context())
	comment, err := h.service.AddComment(r.Context(), session, r.PathValue("id"), payload.Content)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, CommentResponse{Comment: comment, UserName: session.User.Name})
}
