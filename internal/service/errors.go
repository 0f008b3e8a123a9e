package service

import "errors"

// Branchable failure conditions. Callers decide between retrying the
// connect flow, refreshing a token once, or recording a terminal
// failure based on which of these an error wraps.
var (
	// ErrUnauthorized marks a provider 401. The publish path catches it
	// exactly once to refresh the access token and retry; a second 401
	// is promoted to a terminal publish error.
	ErrUnauthorized = errors.New("provider rejected the access token")

	ErrStateNotFound       = errors.New("oauth state not found or already used")
	ErrUserMismatch        = errors.New("oauth state does not belong to this user")
	ErrNoAccessToken       = errors.New("token exchange returned no access token")
	ErrAccountNotConnected = errors.New("account is not connected")
	ErrPostNotFound        = errors.New("post not found")
	ErrIllegalTransition   = errors.New("status transition not allowed")
	ErrNotSupported        = errors.New("platform not supported")
	ErrProcessingTimeout   = errors.New("media processing timed out")
	ErrManualOnly          = errors.New("platform requires manual publish")
	ErrMediaTooLarge       = errors.New("media file exceeds the size limit")
	ErrMediaTypeNotAllowed = errors.New("media type not allowed for this platform")
	ErrAttachmentLimit     = errors.New("attachment limit reached for this platform")
)
