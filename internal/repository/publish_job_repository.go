package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

// TouchParams describes one status-affecting event on a post's ledger
// row. Attempted/Completed stamp the matching timestamps with now.
type TouchParams struct {
	Status       string
	ErrorMessage string
	ScheduledAt  *time.Time
	Attempted    bool
	Completed    bool
}

type PublishJobRepository interface {
	// Touch finds the ledger row for (user, post) or creates it, then
	// applies the event. It never produces a second row for the same
	// post; both the interactive path and the scheduler call it.
	Touch(ctx context.Context, tx *sql.Tx, post *models.GeneratedPost, params TouchParams) error
	GetByPost(ctx context.Context, userID string, postID int64) (*models.PublishJob, error)
}

type publishJobRepository struct {
	db *sql.DB
}

func NewPublishJobRepository(db *sql.DB) PublishJobRepository {
	return &publishJobRepository{db: db}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *publishJobRepository) runner(tx *sql.Tx) queryRower {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *publishJobRepository) Touch(ctx context.Context, tx *sql.Tx, post *models.GeneratedPost, params TouchParams) error {
	run := r.runner(tx)
	now := time.Now().UTC()

	var id int64
	err := run.QueryRowContext(ctx,
		`SELECT id FROM publish_jobs WHERE user_id = $1 AND post_id = $2`,
		post.UserID, post.ID).Scan(&id)

	if err == sql.ErrNoRows {
		insertQuery := `
			INSERT INTO publish_jobs (user_id, post_id, platform, status, scheduled_at, attempted_at, completed_at, error_message)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		var attemptedAt, completedAt *time.Time
		if params.Attempted {
			attemptedAt = &now
		}
		if params.Completed {
			completedAt = &now
		}
		if _, err := run.ExecContext(ctx, insertQuery,
			post.UserID, post.ID, post.Platform, params.Status,
			params.ScheduledAt, attemptedAt, completedAt, params.ErrorMessage); err != nil {
			slog.Info(err.Error())
			return err
		}
		return nil
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	updateQuery := `
		UPDATE publish_jobs
		SET status = $2,
			error_message = $3,
			scheduled_at = COALESCE($4, scheduled_at),
			attempted_at = CASE WHEN $5 THEN $6 ELSE attempted_at END,
			completed_at = CASE WHEN $7 THEN $6 ELSE completed_at END,
			updated_at = $6
		WHERE id = $1`
	if _, err := run.ExecContext(ctx, updateQuery,
		id, params.Status, params.ErrorMessage, params.ScheduledAt,
		params.Attempted, now, params.Completed); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *publishJobRepository) GetByPost(ctx context.Context, userID string, postID int64) (*models.PublishJob, error) {
	query := `
		SELECT id, user_id, post_id, platform, status, scheduled_at, attempted_at, completed_at, error_message, created_at, updated_at
		FROM publish_jobs
		WHERE user_id = $1 AND post_id = $2`
	row := r.db.QueryRowContext(ctx, query, userID, postID)

	var job models.PublishJob
	err := row.Scan(&job.ID, &job.UserID, &job.PostID, &job.Platform, &job.Status,
		&job.ScheduledAt, &job.AttemptedAt, &job.CompletedAt, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &job, nil
}
