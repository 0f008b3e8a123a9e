package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

const mediaAssetColumns = `id, user_id, post_id, platform, file_name, mime_type, file_size, storage_path, file_url, platform_asset_id, upload_status, last_error, created_at, updated_at`

type MediaAssetRepository interface {
	Create(ctx context.Context, asset *models.MediaAsset) (int64, error)
	ListByPost(ctx context.Context, userID string, postID int64) ([]*models.MediaAsset, error)
	CountByPost(ctx context.Context, userID string, postID int64) (int, error)
	SetUploadResult(ctx context.Context, assetID int64, platformAssetID, status, lastError string) error
	SetFileURL(ctx context.Context, assetID int64, fileURL string) error
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, asset *models.MediaAsset) (int64, error) {
	query := `
		INSERT INTO media_assets (user_id, post_id, platform, file_name, mime_type, file_size, storage_path, file_url, upload_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		asset.UserID, asset.PostID, asset.Platform, asset.FileName, asset.MimeType,
		asset.FileSize, asset.StoragePath, asset.FileURL, asset.UploadStatus).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *mediaAssetRepository) ListByPost(ctx context.Context, userID string, postID int64) ([]*models.MediaAsset, error) {
	query := `SELECT ` + mediaAssetColumns + ` FROM media_assets WHERE user_id = $1 AND post_id = $2 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		var a models.MediaAsset
		err := rows.Scan(&a.ID, &a.UserID, &a.PostID, &a.Platform, &a.FileName, &a.MimeType,
			&a.FileSize, &a.StoragePath, &a.FileURL, &a.PlatformAssetID, &a.UploadStatus,
			&a.LastError, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *mediaAssetRepository) CountByPost(ctx context.Context, userID string, postID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM media_assets WHERE user_id = $1 AND post_id = $2`,
		userID, postID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *mediaAssetRepository) SetUploadResult(ctx context.Context, assetID int64, platformAssetID, status, lastError string) error {
	query := `
		UPDATE media_assets
		SET platform_asset_id = $2, upload_status = $3, last_error = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, assetID, platformAssetID, status, lastError)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaAssetRepository) SetFileURL(ctx context.Context, assetID int64, fileURL string) error {
	query := `UPDATE media_assets SET file_url = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, assetID, fileURL)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
