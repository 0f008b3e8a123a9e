package service

import (
	"context"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
)

// Connector is the per-platform surface: the OAuth2 authorization-code
// flow, token refresh, and the publish call. One implementation exists
// per platform; callers dispatch through the registry held by
// PlatformService.
type Connector interface {
	Platform() string

	// BeginAuthorization builds the provider authorization URL with a
	// freshly issued signed state and persists the single-use state row.
	BeginAuthorization(ctx context.Context, userID string) (string, error)

	// HandleCallback verifies and consumes the state, exchanges the
	// code, fetches the profile if needed, and upserts the account with
	// encrypted tokens. Returns the user id the flow belongs to.
	HandleCallback(ctx context.Context, code, state string) (string, error)

	// Publish stages media and creates the platform post. A 401 with a
	// refresh token available triggers exactly one refresh-and-retry.
	Publish(ctx context.Context, userID, content string, media []*models.MediaAsset) (string, error)

	// RefreshToken refreshes the account's access token and persists
	// the new encrypted pair. Used by the proactive refresh job.
	RefreshToken(ctx context.Context, acc *models.SocialAccount) error
}

// BlobStore is the object-storage collaborator: media bytes live there,
// platforms receive either the raw bytes or a signed URL.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) error
	SignURL(ctx context.Context, key string, ttlSeconds int64) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	EnsureBucket(ctx context.Context) error
}

// TextGenerator is the content-generation collaborator. Implementations
// may retry across model fallbacks internally; the core never retries
// this call itself.
type TextGenerator interface {
	Generate(ctx context.Context, content, instruction string) (string, error)
}

// ResearchProvider supplies candidate topics attached as generation
// context. Collection itself lives outside this core.
type ResearchProvider interface {
	CollectTopics(ctx context.Context, userID, content string) ([]string, error)
}

// ImageGenerator renders artwork for a draft: a prompt and target
// dimensions in, raw image bytes and their mime type out. No provider
// ships in-process; deployments plug one in next to TextGenerator.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, width, height int) ([]byte, string, error)
}
