package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

const postColumns = `id, user_id, platform, input_content, generated_text, edited_text, status, scheduled_at, posted_at, external_post_id, last_error, created_at, updated_at`

type PostRepository interface {
	Create(ctx context.Context, post *models.GeneratedPost) (int64, error)
	GetByIDForUser(ctx context.Context, id int64, userID string) (*models.GeneratedPost, error)
	ListByUser(ctx context.Context, userID string) ([]*models.GeneratedPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.GeneratedPost, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, postID int64, status string) error
	SetEditedText(ctx context.Context, postID int64, editedText string) error
	MarkScheduled(ctx context.Context, tx *sql.Tx, postID int64, scheduledAt time.Time) error
	MarkPosted(ctx context.Context, tx *sql.Tx, postID int64, postedAt time.Time, externalPostID string) error
	MarkFailed(ctx context.Context, tx *sql.Tx, postID int64, lastError string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func scanPost(row interface{ Scan(...interface{}) error }) (*models.GeneratedPost, error) {
	var p models.GeneratedPost
	err := row.Scan(&p.ID, &p.UserID, &p.Platform, &p.InputContent, &p.GeneratedText,
		&p.EditedText, &p.Status, &p.ScheduledAt, &p.PostedAt, &p.ExternalPostID,
		&p.LastError, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.GeneratedPost) (int64, error) {
	query := `
		INSERT INTO generated_posts (user_id, platform, input_content, generated_text, edited_text, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.UserID, post.Platform, post.InputContent, post.GeneratedText, post.EditedText, post.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *postRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*models.GeneratedPost, error) {
	query := `SELECT ` + postColumns + ` FROM generated_posts WHERE id = $1 AND user_id = $2`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID string) ([]*models.GeneratedPost, error) {
	query := `SELECT ` + postColumns + ` FROM generated_posts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.GeneratedPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// ListDue returns scheduled posts whose time has come. Timestamps are
// stored UTC-naive, so the caller passes a UTC now.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.GeneratedPost, error) {
	query := `SELECT ` + postColumns + ` FROM generated_posts WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.GeneratedPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func execOne(ctx context.Context, db *sql.DB, tx *sql.Tx, query string, args ...interface{}) error {
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		slog.Info(err.Error())
	}
	return err
}

func (r *postRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, postID int64, status string) error {
	query := `UPDATE generated_posts SET status = $2, updated_at = $3 WHERE id = $1`
	return execOne(ctx, r.db, tx, query, postID, status, time.Now().UTC())
}

func (r *postRepository) SetEditedText(ctx context.Context, postID int64, editedText string) error {
	query := `UPDATE generated_posts SET edited_text = $2, updated_at = $3 WHERE id = $1`
	return execOne(ctx, r.db, nil, query, postID, editedText, time.Now().UTC())
}

func (r *postRepository) MarkScheduled(ctx context.Context, tx *sql.Tx, postID int64, scheduledAt time.Time) error {
	query := `UPDATE generated_posts SET status = $2, scheduled_at = $3, updated_at = $4 WHERE id = $1`
	return execOne(ctx, r.db, tx, query, postID, models.PostStatusScheduled, scheduledAt, time.Now().UTC())
}

func (r *postRepository) MarkPosted(ctx context.Context, tx *sql.Tx, postID int64, postedAt time.Time, externalPostID string) error {
	query := `
		UPDATE generated_posts
		SET status = $2, posted_at = $3, external_post_id = $4, last_error = '', updated_at = $5
		WHERE id = $1`
	return execOne(ctx, r.db, tx, query, postID, models.PostStatusPosted, postedAt, externalPostID, time.Now().UTC())
}

func (r *postRepository) MarkFailed(ctx context.Context, tx *sql.Tx, postID int64, lastError string) error {
	query := `UPDATE generated_posts SET status = $2, last_error = $3, updated_at = $4 WHERE id = $1`
	return execOne(ctx, r.db, tx, query, postID, models.PostStatusFailed, lastError, time.Now().UTC())
}
