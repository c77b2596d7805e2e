package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/repositories"
	"github.com/civicpulse/reporter/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// CommentAdapter implements the CommentRepository interface on the
// issue_comments table
type CommentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.CommentRepository = (*CommentAdapter)(nil)

// NewCommentAdapter creates a new comment adapter
func NewCommentAdapter(client *postgres.Client) *CommentAdapter {
	return &CommentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Add appends a content comment
func (a *CommentAdapter) Add(ctx context.Context, comment *entities.Comment) error {
	if comment == nil {
		return apperrors.NewInternalError("comment is nil", fmt.Errorf("comment is nil"))
	}

	query, args, err := a.db.Insert("issue_comments").Rows(commentRecord(comment)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewTransportError("failed to add comment", err)
	}
	return nil
}

// ToggleLike deletes the user's like marker, or inserts like when none was
// deleted. Both steps run in one transaction.
func (a *CommentAdapter) ToggleLike(ctx context.Context, like *entities.Comment) (bool, error) {
	if like == nil {
		return false, apperrors.NewInternalError("like is nil", fmt.Errorf("like is nil"))
	}

	deleteQuery, deleteArgs, err := a.db.Delete("issue_comments").
		Where(goqu.Ex{"issue_id": like.IssueID, "user_id": like.UserID, "content": ""}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build delete query", err)
	}
	insertQuery, insertArgs, err := a.db.Insert("issue_comments").Rows(commentRecord(like)).ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build insert query", err)
	}

	liked := false
	err = a.client.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...)
		if err != nil {
			return apperrors.NewTransportError("failed to remove like", err)
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			if isUniqueViolation(err) {
				return apperrors.NewConflictError("like changed concurrently")
			}
			return apperrors.NewTransportError("failed to add like", err)
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

// ListComments returns content comments in creation order
func (a *CommentAdapter) ListComments(ctx context.Context, issueID string) ([]*entities.Comment, error) {
	query, args, err := a.db.Select("id", "issue_id", "user_id", "content", "created_at").
		From("issue_comments").
		Where(goqu.Ex{"issue_id": issueID}, goqu.C("content").Neq("")).
		Order(goqu.I("seq").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to list comments", err)
	}
	defer rows.Close()

	comments := []*entities.Comment{}
	for rows.Next() {
		comment := &entities.Comment{}
		if err := rows.Scan(&comment.ID, &comment.IssueID, &comment.UserID, &comment.Content, &comment.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan comment", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewTransportError("failed to iterate comments", err)
	}
	return comments, nil
}

// CountLikes returns the number of like markers on an issue
func (a *CommentAdapter) CountLikes(ctx context.Context, issueID string) (int, error) {
	return a.count(ctx, goqu.Ex{"issue_id": issueID, "content": ""})
}

// CountComments returns the number of content comments on an issue
func (a *CommentAdapter) CountComments(ctx context.Context, issueID string) (int, error) {
	return a.count(ctx, goqu.Ex{"issue_id": issueID}, goqu.C("content").Neq(""))
}

// CountByIssues returns likes and comments for every listed issue with one
// grouped query
func (a *CommentAdapter) CountByIssues(ctx context.Context, issueIDs []string) (map[string]entities.EngagementCounts, error) {
	counts := make(map[string]entities.EngagementCounts, len(issueIDs))
	if len(issueIDs) == 0 {
		return counts, nil
	}

	query, args, err := a.db.Select(
		goqu.C("issue_id"),
		goqu.L("COUNT(*) FILTER (WHERE content = '')").As("likes"),
		goqu.L("COUNT(*) FILTER (WHERE content <> '')").As("comments"),
	).
		From("issue_comments").
		Where(goqu.Ex{"issue_id": issueIDs}).
		GroupBy("issue_id").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build count query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewTransportError("failed to count engagement", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var c entities.EngagementCounts
		if err := rows.Scan(&id, &c.Likes, &c.Comments); err != nil {
			return nil, apperrors.NewInternalError("failed to scan engagement counts", err)
		}
		counts[id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewTransportError("failed to iterate engagement counts", err)
	}
	return counts, nil
}

func (a *CommentAdapter) count(ctx context.Context, where ...goqu.Expression) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From("issue_comments").Where(where...).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewTransportError("failed to count comments", err)
	}
	return count, nil
}

func commentRecord(c *entities.Comment) goqu.Record {
	return goqu.Record{
		"id":         c.ID,
		"issue_id":   c.IssueID,
		"user_id":    c.UserID,
		"content":    c.Content,
		"created_at": c.CreatedAt,
	}
}
