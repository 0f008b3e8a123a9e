package models

import "time"

type GeneratedPost struct {
	ID             int64      `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	Platform       string     `db:"platform" json:"platform"`
	InputContent   string     `db:"input_content" json:"input_content"`
	GeneratedText  string     `db:"generated_text" json:"generated_text"`
	EditedText     string     `db:"edited_text" json:"edited_text"`
	Status         string     `db:"status" json:"status"`
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at"`
	PostedAt       *time.Time `db:"posted_at" json:"posted_at"`
	ExternalPostID string     `db:"external_post_id" json:"external_post_id"`
	LastError      string     `db:"last_error" json:"last_error"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Content returns the text that should go out: the user's edit wins
// over the generated draft.
func (p *GeneratedPost) Content() string {
	if edited := p.EditedText; edited != "" {
		return edited
	}
	return p.GeneratedText
}

const (
	PostStatusDraft     = "draft"
	PostStatusApproved  = "approved"
	PostStatusRejected  = "rejected"
	PostStatusScheduled = "scheduled"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
)

const (
	PlatformLinkedin = "linkedin"
	PlatformTwitter  = "twitter"
)
