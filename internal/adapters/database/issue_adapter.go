package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

var issueColumns = []any{
	"id", "category", "description", "lat", "lng", "status",
	"image_ref", "reporter_id", "address", "created_at", "updated_at",
}

// IssueAdapter implements the IssueRepository interface
type IssueAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.IssueRepository = (*IssueAdapter)(nil)

// NewIssueAdapter creates a new issue adapter
func NewIssueAdapter(client *postgres.Client) *IssueAdapter {
	return &IssueAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a new issue
func (a *IssueAdapter) Create(ctx context.Context, issue *entities.Issue) error {
	if issue == nil {
		return apperrors.NewInternalError("issue is nil", fmt.Errorf("issue is nil"))
	}

	record := goqu.Record{
		"id":          issue.ID,
		"category":    string(issue.Category),
		"description": issue.Description,
		"lat":         issue.Latitude,
		"lng":         issue.Longitude,
		"status":      string(issue.Status),
		"image_ref":   issue.ImageRef,
		"reporter_id": issue.ReporterID,
		"address":     issue.Address,
		"created_at":  issue.CreatedAt,
		"updated_at":  issue.UpdatedAt,
	}

	query, args, err := a.db.Insert("issues").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewTransportError("failed to create issue", err)
	}
	return nil
}

// GetByID retrieves an issue by ID
func (a *IssueAdapter) GetByID(ctx context.Context, id string) (*entities.Issue, error) {
	query, args, err := a.db.Select(issueColumns...).From("issues").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	issue, err := scanIssue(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("issue with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewTransportError("failed to get issue", err)
	}
	return issue, nil
}

// List returns issues newest first, later inserts first on equal timestamps
func (a *IssueAdapter) List(ctx context.Context, filter repositories.IssueFilter) ([]*entities.Issue, error) {
	ds := a.db.Select(issueColumns...).From("issues")
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}

	query, args, err := ds.Order(goqu.I("created_at").Desc(), goqu.I("seq").Desc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to list issues", err)
	}
	defer rows.Close()

	issues := []*entities.Issue{}
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan issue", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewTransportError("failed to iterate issues", err)
	}
	return issues, nil
}

// UpdateStatus sets the status of an issue and returns the stored row
func (a *IssueAdapter) UpdateStatus(ctx context.Context, id string, status entities.Status, updatedAt time.Time) (*entities.Issue, error) {
	query, args, err := a.db.Update("issues").
		Set(goqu.Record{"status": string(status), "updated_at": updatedAt}).
		Where(goqu.Ex{"id": id}).
		Returning(issueColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	issue, err := scanIssue(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("issue with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewTransportError("failed to update issue status", err)
	}
	return issue, nil
}

func scanIssue(row rowScanner) (*entities.Issue, error) {
	issue := &entities.Issue{}
	var category, status string
	if err := row.Scan(
		&issue.ID,
		&category,
		&issue.Description,
		&issue.Latitude,
		&issue.Longitude,
		&status,
		&issue.ImageRef,
		&issue.ReporterID,
		&issue.Address,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	); err != nil {
		return nil, err
	}
	issue.Category = entities.Category(category)
	issue.Status = entities.Status(status)
	return issue, nil
}
