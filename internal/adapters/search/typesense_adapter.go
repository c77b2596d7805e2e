package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	tsclient "github.com/civicpulse/reporter/backend/internal/infrastructure/clients/typesense"
)

const defaultSearchLimit = 50

// TypesenseAdapter implements IssueSearchRepository on a Typesense collection
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.IssueSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts an issue document
func (a *TypesenseAdapter) Index(ctx context.Context, issue *entities.Issue) error {
	_, err := a.client.Client().Collection(tsclient.IssuesCollection).Documents().Upsert(ctx, issueDocument(issue))
	if err != nil {
		return fmt.Errorf("failed to index issue: %w", err)
	}
	return nil
}

// Delete removes an issue from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.IssuesCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete issue from index: %w", err)
	}
	return nil
}

// Search returns IDs of issues whose description or address match the query
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.IssueSearchParams) ([]string, error) {
	result, err := a.client.Client().Collection(tsclient.IssuesCollection).Documents().Search(ctx, searchParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}
	if result.Hits == nil {
		return []string{}, nil
	}

	ids := make([]string, 0, len(*result.Hits))
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func issueDocument(issue *entities.Issue) map[string]interface{} {
	return map[string]interface{}{
		"id":          issue.ID,
		"description": issue.Description,
		"category":    string(issue.Category),
		"status":      string(issue.Status),
		"address":     issue.Address,
		"location":    []float64{issue.Latitude, issue.Longitude},
		"reporter_id": issue.ReporterID,
		"created_at":  issue.CreatedAt.Unix(),
	}
}

func searchParams(params repositories.IssueSearchParams) *api.SearchCollectionParams {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		query = "*"
	}

	sp := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("description,address"),
		SortBy:  pointer.String("_text_match:desc,created_at:desc"),
		PerPage: pointer.Int(limit),
	}
	if params.Status != "" {
		sp.FilterBy = pointer.String("status:=" + string(params.Status))
	}
	return sp
}
