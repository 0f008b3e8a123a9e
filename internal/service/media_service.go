package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
)

const (
	maxMediaBytes     = 8 << 20
	signedURLLifetime = int64(24 * 60 * 60)
)

// What each platform accepts as an attachment, checked against the
// sniffed type rather than the client-declared one.
var allowedMediaTypes = map[string]map[string]bool{
	models.PlatformLinkedin: {
		"image/png":       true,
		"image/jpeg":      true,
		"application/pdf": true,
	},
	models.PlatformTwitter: {
		"image/png":  true,
		"image/jpeg": true,
	},
}

var attachmentLimits = map[string]int{
	models.PlatformLinkedin: 9,
	models.PlatformTwitter:  4,
}

type MediaService struct {
	posts repository.PostRepository
	ma    repository.MediaAssetRepository
	store BlobStore
}

func NewMediaService(posts repository.PostRepository, ma repository.MediaAssetRepository, store BlobStore) *MediaService {
	return &MediaService{posts: posts, ma: ma, store: store}
}

// Upload validates, stores, and records one attachment for a post. The
// blob goes to object storage immediately; the platform-side upload
// happens at publish time.
func (s *MediaService) Upload(ctx context.Context, userID string, req *transfer.UploadMediaRequest) (*models.MediaAsset, error) {
	post, err := s.posts.GetByIDForUser(ctx, req.PostID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	blob, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		return nil, fmt.Errorf("media content is not valid base64: %w", err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("media content is empty")
	}
	if len(blob) > maxMediaBytes {
		return nil, ErrMediaTooLarge
	}

	mimeType, err := sniffMimeType(blob)
	if err != nil {
		return nil, err
	}
	allowed, known := allowedMediaTypes[post.Platform]
	if !known {
		return nil, fmt.Errorf("%s: %w", post.Platform, ErrNotSupported)
	}
	if !allowed[mimeType] {
		return nil, fmt.Errorf("%s on %s: %w", mimeType, post.Platform, ErrMediaTypeNotAllowed)
	}

	count, err := s.ma.CountByPost(ctx, userID, post.ID)
	if err != nil {
		return nil, err
	}
	if count >= attachmentLimits[post.Platform] {
		return nil, fmt.Errorf("%s allows at most %d attachments: %w",
			post.Platform, attachmentLimits[post.Platform], ErrAttachmentLimit)
	}

	suffix, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	storagePath := fmt.Sprintf("%s/%d/%s_%s", userID, post.ID, suffix, sanitizeFileName(req.FileName))

	if err := s.store.Put(ctx, storagePath, blob, mimeType); err != nil {
		return nil, err
	}

	fileURL, err := s.store.SignURL(ctx, storagePath, signedURLLifetime)
	if err != nil {
		return nil, err
	}

	asset := &models.MediaAsset{
		UserID:       userID,
		PostID:       post.ID,
		Platform:     post.Platform,
		FileName:     req.FileName,
		MimeType:     mimeType,
		FileSize:     int64(len(blob)),
		StoragePath:  storagePath,
		FileURL:      fileURL,
		UploadStatus: models.UploadStatusPending,
	}
	id, err := s.ma.Create(ctx, asset)
	if err != nil {
		return nil, err
	}
	asset.ID = id
	return asset, nil
}

// ListPostMedia returns a post's attachments with fresh signed URLs.
func (s *MediaService) ListPostMedia(ctx context.Context, userID string, postID int64) ([]*models.MediaAsset, error) {
	post, err := s.posts.GetByIDForUser(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	assets, err := s.ma.ListByPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		fileURL, err := s.store.SignURL(ctx, asset.StoragePath, signedURLLifetime)
		if err != nil {
			return nil, err
		}
		asset.FileURL = fileURL
		if err := s.ma.SetFileURL(ctx, asset.ID, fileURL); err != nil {
			return nil, err
		}
	}
	return assets, nil
}

func sniffMimeType(blob []byte) (string, error) {
	kind, err := filetype.Match(blob)
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown {
		return "", fmt.Errorf("unrecognized file content: %w", ErrMediaTypeNotAllowed)
	}
	return kind.MIME.Value, nil
}

// sanitizeFileName keeps storage keys flat and predictable.
func sanitizeFileName(name string) string {
	if name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
