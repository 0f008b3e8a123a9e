package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

type OAuthStateRepository interface {
	Create(ctx context.Context, state *models.OAuthState) (int64, error)
	GetByToken(ctx context.Context, token string) (*models.OAuthState, error)
	Delete(ctx context.Context, id int64) error
}

type oauthStateRepository struct {
	db *sql.DB
}

func NewOAuthStateRepository(db *sql.DB) OAuthStateRepository {
	return &oauthStateRepository{db: db}
}

func (r *oauthStateRepository) Create(ctx context.Context, state *models.OAuthState) (int64, error) {
	query := `
		INSERT INTO oauth_states (user_id, provider, state_token)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query, state.UserID, state.Provider, state.StateToken).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *oauthStateRepository) GetByToken(ctx context.Context, token string) (*models.OAuthState, error) {
	query := `SELECT id, user_id, provider, state_token, created_at FROM oauth_states WHERE state_token = $1`
	row := r.db.QueryRowContext(ctx, query, token)

	var state models.OAuthState
	err := row.Scan(&state.ID, &state.UserID, &state.Provider, &state.StateToken, &state.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &state, nil
}

func (r *oauthStateRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
