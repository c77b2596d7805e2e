package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/civicpulse/reporter/backend/internal/adapters/providers/geolocation"
	"github.com/civicpulse/reporter/backend/internal/api/loaders"
	"github.com/civicpulse/reporter/backend/internal/api/middleware"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// IssueService defines the issue reads used by the handler
type IssueService interface {
	List(ctx context.Context, filter string) ([]*entities.Issue, error)
	Search(ctx context.Context, query, filter string) ([]*entities.Issue, error)
	Get(ctx context.Context, id string) (*entities.Issue, error)
}

// IntakeService defines the report intake operations used by the handler
type IntakeService interface {
	Begin(session *entities.Session) (*services.Draft, error)
	Submit(ctx context.Context, draft *services.Draft) (*entities.Issue, error)
}

// EngagementCounter reports engagement totals for a page of issues
type EngagementCounter interface {
	Counts(ctx context.Context, issueIDs []string) (map[string]entities.EngagementCounts, error)
}

// IssueHandler handles issue listing, lookup and reporting
type IssueHandler struct {
	issues   IssueService
	intake   IntakeService
	counts   EngagementCounter
	validate *validator.Validate
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(issues IssueService, intake IntakeService, counts EngagementCounter) *IssueHandler {
	return &IssueHandler{
		issues:   issues,
		intake:   intake,
		counts:   counts,
		validate: validator.New(),
	}
}

// IssueResponse is an issue with its reporter and engagement totals
type IssueResponse struct {
	*entities.Issue
	ReporterName string `json:"reporterName,omitempty"`
	LikeCount    int    `json:"likeCount"`
	CommentCount int    `json:"commentCount"`
}

type createIssueRequest struct {
	Category       string   `json:"category" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	LocationSource string   `json:"location_source" validate:"required,oneof=map device"`
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
	LocationError  string   `json:"location_error" validate:"omitempty,oneof=permission_denied unavailable timeout"`
	ImageRef       string   `json:"image_ref"`
}

// ListIssues handles GET /api/issues?status=
func (h *IssueHandler) ListIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.issues.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	h.respondWithIssues(w, r, issues)
}

// SearchIssues handles GET /api/issues/search?q=&status=
func (h *IssueHandler) SearchIssues(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	issues, err := h.issues.Search(r.Context(), query.Get("q"), query.Get("status"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	h.respondWithIssues(w, r, issues)
}

// GetIssue handles GET /api/issues/{id}
func (h *IssueHandler) GetIssue(w http.ResponseWriter, r *http.Request) {
	issue, err := h.issues.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	responses, err := h.enrich(r.Context(), []*entities.Issue{issue})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, responses[0])
}

// CreateIssue handles POST /api/issues
func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	draft, err := h.intake.Begin(middleware.SessionFromContext(r.Context()))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	var payload createIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	payload.Description = strings.TrimSpace(payload.Description)
	if err := h.validate.Struct(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	switch payload.LocationSource {
	case services.LocationSourceMap:
		if payload.Lat == nil || payload.Lng == nil {
			respondWithError(w, http.StatusBadRequest, "lat and lng are required for a map pin")
			return
		}
		if err := draft.PinFromMap(*payload.Lat, *payload.Lng); err != nil {
			respondWithAppError(w, err)
			return
		}
	case services.LocationSourceDevice:
		var fix *entities.Coordinates
		if payload.Lat != nil && payload.Lng != nil {
			fix = &entities.Coordinates{Latitude: *payload.Lat, Longitude: *payload.Lng}
		}
		locator := geolocation.NewReportedLocator(fix, payload.LocationError)
		if err := draft.LocateDevice(r.Context(), locator); err != nil {
			respondWithAppError(w, err)
			return
		}
	}

	draft.Describe(entities.Category(strings.ToLower(strings.TrimSpace(payload.Category))), payload.Description, payload.ImageRef)

	issue, err := h.intake.Submit(r.Context(), draft)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, IssueResponse{Issue: issue})
}

func (h *IssueHandler) respondWithIssues(w http.ResponseWriter, r *http.Request, issues []*entities.Issue) {
	responses, err := h.enrich(r.Context(), issues)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"issues": responses,
		"count":  len(responses),
	})
}

func (h *IssueHandler) enrich(ctx context.Context, issues []*entities.Issue) ([]IssueResponse, error) {
	reporterIDs := make([]string, 0, len(issues))
	issueIDs := make([]string, 0, len(issues))
	for _, issue := range issues {
		reporterIDs = append(reporterIDs, issue.ReporterID)
		issueIDs = append(issueIDs, issue.ID)
	}
	names := loaders.UserNames(ctx, reporterIDs)

	counts := map[string]entities.EngagementCounts{}
	if h.counts != nil && len(issueIDs) > 0 {
		var err error
		if counts, err = h.counts.Counts(ctx, issueIDs); err != nil {
			return nil, err
		}
	}

	responses := make([]IssueResponse, 0, len(issues))
	for _, issue := range issues {
		c := counts[issue.ID]
		responses = append(responses, IssueResponse{
			Issue:        issue,
			ReporterName: names[issue.ReporterID],
			LikeCount:    c.Likes,
			CommentCount: c.Comments,
		})
	}
	return responses, nil
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !asValidationErrors(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request payload"
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	}
	return field + " is invalid"
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = fieldErrs
	}
	return ok
}
