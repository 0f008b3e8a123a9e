package models

import "time"

type MediaAsset struct {
	ID              int64     `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	PostID          int64     `db:"post_id" json:"post_id"`
	Platform        string    `db:"platform" json:"platform"`
	FileName        string    `db:"file_name" json:"file_name"`
	MimeType        string    `db:"mime_type" json:"mime_type"`
	FileSize        int64     `db:"file_size" json:"file_size"`
	StoragePath     string    `db:"storage_path" json:"storage_path"`
	FileURL         string    `db:"file_url" json:"file_url"`
	PlatformAssetID string    `db:"platform_asset_id" json:"platform_asset_id"`
	UploadStatus    string    `db:"upload_status" json:"upload_status"`
	LastError       string    `db:"last_error" json:"last_error"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
	UploadStatusFailed   = "failed"
)
