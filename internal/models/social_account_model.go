package models

import "time"

// SocialAccount holds one connected platform account per (user, platform).
// Access and refresh tokens are stored encrypted; TokenExpiresAt is nil
// for providers that issue non-expiring tokens.
type SocialAccount struct {
	ID             int64      `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	Platform       string     `db:"platform" json:"platform"`
	AccountID      string     `db:"account_id" json:"account_id"`
	AccountName    string     `db:"account_name" json:"account_name"`
	AccessToken    string     `db:"access_token" json:"-"`
	RefreshToken   string     `db:"refresh_token" json:"-"`
	TokenExpiresAt *time.Time `db:"token_expires_at" json:"token_expires_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type OAuthState struct {
	ID         int64     `db:"id"`
	UserID     string    `db:"user_id"`
	Provider   string    `db:"provider"`
	StateToken string    `db:"state_token"`
	CreatedAt  time.Time `db:"created_at"`
}
