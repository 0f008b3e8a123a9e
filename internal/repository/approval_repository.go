package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

type ApprovalRepository interface {
	EnsurePending(ctx context.Context, userID string, postID int64) error
	Resolve(ctx context.Context, userID string, postID int64, status, note string) error
	GetByPost(ctx context.Context, userID string, postID int64) (*models.ApprovalRequest, error)
}

type approvalRepository struct {
	db *sql.DB
}

func NewApprovalRepository(db *sql.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) EnsurePending(ctx context.Context, userID string, postID int64) error {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM approval_requests WHERE user_id = $1 AND post_id = $2`,
		userID, postID).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		slog.Info(err.Error())
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO approval_requests (user_id, post_id, status, requested_at) VALUES ($1, $2, $3, $4)`,
		userID, postID, models.ApprovalStatusPending, time.Now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *approvalRepository) Resolve(ctx context.Context, userID string, postID int64, status, note string) error {
	query := `
		UPDATE approval_requests
		SET status = $3, resolved_at = $4, resolution_note = $5
		WHERE user_id = $1 AND post_id = $2`
	_, err := r.db.ExecContext(ctx, query, userID, postID, status, time.Now().UTC(), note)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *approvalRepository) GetByPost(ctx context.Context, userID string, postID int64) (*models.ApprovalRequest, error) {
	query := `
		SELECT id, user_id, post_id, status, requested_at, resolved_at, resolution_note
		FROM approval_requests
		WHERE user_id = $1 AND post_id = $2`
	row := r.db.QueryRowContext(ctx, query, userID, postID)

	var ar models.ApprovalRequest
	err := row.Scan(&ar.ID, &ar.UserID, &ar.PostID, &ar.Status, &ar.RequestedAt, &ar.ResolvedAt, &ar.ResolutionNote)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &ar, nil
}
