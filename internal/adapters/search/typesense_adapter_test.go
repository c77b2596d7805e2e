package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
)

func TestIssueDocument(t *testing.T) {
	created := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	doc := issueDocument(&entities.Issue{
		ID:          "issue-1",
		Category:    entities.CategoryDamage,
		Description: "Pothole on Main St",
		Latitude:    42.6629,
		Longitude:   21.1655,
		Status:      entities.StatusOpen,
		ReporterID:  "u1",
		CreatedAt:   created,
	})

	assert.Equal(t, "issue-1", doc["id"])
	assert.Equal(t, "damage", doc["category"])
	assert.Equal(t, "open", doc["status"])
	assert.Equal(t, []float64{42.6629, 21.1655}, doc["location"])
	assert.Equal(t, created.Unix(), doc["created_at"])
}

func TestSearchParams(t *testing.T) {
	t.Run("empty query matches everything", func(t *testing.T) {
		sp := searchParams(repositories.IssueSearchParams{})

		require.NotNil(t, sp.Q)
		assert.Equal(t, "*", *sp.Q)
		assert.Equal(t, defaultSearchLimit, *sp.PerPage)
		assert.Nil(t, sp.FilterBy)
	})

	t.Run("status filter", func(t *testing.T) {
		sp := searchParams(repositories.IssueSearchParams{Query: " pothole ", Status: entities.StatusResolved, Limit: 5})

		assert.Equal(t, "pothole", *sp.Q)
		assert.Equal(t, "status:=resolved", *sp.FilterBy)
		assert.Equal(t, 5, *sp.PerPage)
	})
}
