package models

import "time"

// PublishJob is the ledger row for one (user, post, platform). It keeps
// the attempt history separate from the post's own display status, so a
// failed auto-publish never erases the fact that the post was approved.
type PublishJob struct {
	ID           int64      `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	PostID       int64      `db:"post_id" json:"post_id"`
	Platform     string     `db:"platform" json:"platform"`
	Status       string     `db:"status" json:"status"`
	ScheduledAt  *time.Time `db:"scheduled_at" json:"scheduled_at"`
	AttemptedAt  *time.Time `db:"attempted_at" json:"attempted_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at"`
	ErrorMessage string     `db:"error_message" json:"error_message"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	JobStatusPending   = "pending"
	JobStatusDraft     = "draft"
	JobStatusScheduled = "scheduled"
	JobStatusPosted    = "posted"
	JobStatusFailed    = "failed"
)
