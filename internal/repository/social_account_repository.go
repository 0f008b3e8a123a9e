package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

type SocialAccountRepository interface {
	GetByUserAndPlatform(ctx context.Context, userID, platform string) (*models.SocialAccount, error)
	Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error)
	UpdateTokens(ctx context.Context, userID, platform, accessToken, refreshToken string, expiresAt *time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	ListExpiringBefore(ctx context.Context, deadline time.Time) ([]*models.SocialAccount, error)
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func (r *socialAccountRepository) GetByUserAndPlatform(ctx context.Context, userID, platform string) (*models.SocialAccount, error) {
	query := `
		SELECT id, user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, created_at, updated_at
		FROM social_accounts
		WHERE user_id = $1 AND platform = $2`
	row := r.db.QueryRowContext(ctx, query, userID, platform)

	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName,
		&sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sa, nil
}

// Upsert finds the row by its natural key (user_id, platform) and
// updates it, or inserts a new one. The unique constraint on
// (user_id, platform) makes reconnects overwrite rather than duplicate.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM social_accounts WHERE user_id = $1 AND platform = $2`,
		sa.UserID, sa.Platform).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		insertQuery := `
			INSERT INTO social_accounts (user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`
		err = tx.QueryRowContext(ctx, insertQuery,
			sa.UserID, sa.Platform, sa.AccountID, sa.AccountName,
			sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt).Scan(&id)
		if err != nil {
			slog.Info(err.Error())
			return 0, err
		}
	case err != nil:
		slog.Info(err.Error())
		return 0, err
	default:
		updateQuery := `
			UPDATE social_accounts
			SET account_id = $2,
				account_name = $3,
				access_token = $4,
				refresh_token = $5,
				token_expires_at = $6,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`
		if _, err = tx.ExecContext(ctx, updateQuery,
			id, sa.AccountID, sa.AccountName, sa.AccessToken, sa.RefreshToken, sa.TokenExpiresAt); err != nil {
			slog.Info(err.Error())
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *socialAccountRepository) UpdateTokens(ctx context.Context, userID, platform, accessToken, refreshToken string, expiresAt *time.Time) error {
	query := `
		UPDATE social_accounts
		SET access_token = $3,
			refresh_token = COALESCE(NULLIF($4, ''), refresh_token),
			token_expires_at = $5,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND platform = $2`
	result, err := r.db.ExecContext(ctx, query, userID, platform, accessToken, refreshToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *socialAccountRepository) ListByUser(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	query := `
		SELECT id, user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, created_at, updated_at
		FROM social_accounts
		WHERE user_id = $1
		ORDER BY platform`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName,
			&sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}
	return accounts, rows.Err()
}

func (r *socialAccountRepository) ListExpiringBefore(ctx context.Context, deadline time.Time) ([]*models.SocialAccount, error) {
	query := `
		SELECT id, user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, created_at, updated_at
		FROM social_accounts
		WHERE token_expires_at IS NOT NULL AND token_expires_at <= $1 AND refresh_token <> ''`
	rows, err := r.db.QueryContext(ctx, query, deadline)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName,
			&sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}
