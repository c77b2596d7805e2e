package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/api/handlers"
	"github.com/civicpulse/reporter/backend/internal/application/services"
	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

func seedIssue(t *testing.T, f *issueFixture) *entities.Issue {
	t.Helper()
	issue, err := f.issues.Create(context.Background(), services.CreateIssueInput{
		Category: entities.CategoryDamage, Description: "Cracked pavement", Latitude: 42.66, Longitude: 21.16, ReporterID: "user-1",
	})
	require.NoError(t, err)
	return issue
}

func TestEngagementHandler_ToggleLike(t *testing.T) {
	f := newIssueFixture(t)
	issue := seedIssue(t, f)
	handler := handlers.NewEngagementHandler(f.engagement)
	session := testSession(entities.RoleCitizen)

	like := func() entities.LikeResult {
		req := withSession(httptest.NewRequest(http.MethodPost, "/api/issues/"+issue.ID+"/like", nil), session)
		req.SetPathValue("id", issue.ID)
		w := httptest.NewRecorder()
		handler.ToggleLike(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var result entities.LikeResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		return result
	}

	assert.Equal(t, entities.LikeResult{Liked: true, Count: 1}, like())
	assert.Equal(t, entities.LikeResult{Liked: false, Count: 0}, like())
}

func TestEngagementHandler_ToggleLikeRequiresSession(t *testing.T) {
	f := newIssueFixture(t)
	issue := seedIssue(t, f)
	handler := handlers.NewEngagementHandler(f.engagement)

	req := httptest.NewRequest(http.MethodPost, "/api/issues/"+issue.ID+"/like", nil)
	req.SetPathValue("id", issue.ID)
	w := httptest.NewRecorder()

	handler.ToggleLike(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEngagementHandler_Comments(t *testing.T) {
	f := newIssueFixture(t)
	issue := seedIssue(t, f)
	handler := handlers.NewEngagementHandler(f.engagement)
	session := testSession(entities.RoleCitizen)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/issues/"+issue.ID+"/comments", bytes.NewBufferString(`{"content":"  Still broken  "}`)), session)
	req.SetPathValue("id", issue.ID)
	w := httptest.NewRecorder()
	handler.AddComment(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created handlers.CommentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Still broken", created.Content)
	assert.Equal(t, "Ana", created.UserName)

	req = httptest.NewRequest(http.MethodGet, "/api/issues/"+issue.ID+"/comments", nil)
	req.SetPathValue("id", issue.ID)
	w = httptest.NewRecorder()
	handler.ListComments(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Comments []handlers.CommentResponse `json:"comments"`
		Count    int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Still broken", resp.Comments[0].Content)
}

func TestEngagementHandler_EmptyCommentRejected(t *testing.T) {
	f := newIssueFixture(t)
	issue := seedIssue(t, f)
	handler := handlers.NewEngagementHandler(f.engagement)

	req := withSession(httptest.NewRequest(http.MethodPost, "/api/issues/"+issue.ID+"/comments", bytes.NewBufferString(`{"content":"   "}`)), testSession(entities.RoleCitizen))
	req.SetPathValue("id", issue.ID)
	w := httptest.NewRecorder()

	handler.AddComment(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
