package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/Eman-gul457/Content-Repurposing-Agent/configs"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/pkg/utils"
)

const testCipherKey = "0123456789abcdef0123456789abcdef"

func testCipher(t *testing.T) *utils.TokenCipher {
	t.Helper()
	cipher, err := utils.NewTokenCipher(testCipherKey)
	require.NoError(t, err)
	return cipher
}

func encryptForTest(t *testing.T, cipher *utils.TokenCipher, plaintext string) string {
	t.Helper()
	encrypted, err := cipher.Encrypt(plaintext)
	require.NoError(t, err)
	return encrypted
}

func twitterAccount(t *testing.T, cipher *utils.TokenCipher, accessToken, refreshToken string) *models.SocialAccount {
	t.Helper()
	acc := &models.SocialAccount{
		UserID:      "u1",
		Platform:    models.PlatformTwitter,
		AccountID:   "tw-1",
		AccountName: "tester",
		AccessToken: encryptForTest(t, cipher, accessToken),
	}
	if refreshToken != "" {
		acc.RefreshToken = encryptForTest(t, cipher, refreshToken)
	}
	return acc
}

func newTwitterServiceForTest(c *utils.TokenCipher, accounts *fakeAccountRepo, ma *fakeMediaRepo, store BlobStore, apiURL, uploadURL string, sleeps *[]time.Duration) *twitterService {
	return &twitterService{
		cfg: cfg.Config{
			TwitterClientID:     "client-id",
			TwitterClientSecret: "client-secret",
			TwitterRedirectURI:  "http://localhost/cb",
			StateSigningSecret:  "test-secret",
		},
		sa:         accounts,
		states:     newFakeStateRepo(),
		ma:         ma,
		store:      store,
		cipher:     c,
		client:     &http.Client{Timeout: 5 * time.Second},
		authBase:   apiURL,
		apiBase:    apiURL,
		uploadBase: uploadURL,
		sleep: func(d time.Duration) {
			if sleeps != nil {
				*sleeps = append(*sleeps, d)
			}
		},
	}
}

func TestTwitterPublishRefreshesOnceOn401(t *testing.T) {
	cipher := testCipher(t)

	tweetCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/oauth2/token":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "fresh-token",
				"refresh_token": "rotated-refresh",
				"token_type":    "bearer",
				"expires_in":    7200,
			})
		case "/2/tweets":
			tweetCalls++
			if r.Header.Get("Authorization") != "Bearer fresh-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]string{"id": "tweet-123", "text": "hello"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	accounts := newFakeAccountRepo(twitterAccount(t, cipher, "stale-token", "old-refresh"))
	svc := newTwitterServiceForTest(cipher, accounts, newFakeMediaRepo(), newFakeBlobStore(), server.URL, server.URL, nil)

	externalID, err := svc.Publish(context.Background(), "u1", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "tweet-123", externalID)
	assert.Equal(t, 2, tweetCalls)
	assert.Equal(t, 1, accounts.tokenUpdates)

	stored, err := accounts.GetByUserAndPlatform(context.Background(), "u1", models.PlatformTwitter)
	require.NoError(t, err)
	access, err := cipher.Decrypt(stored.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", access)
	refresh, err := cipher.Decrypt(stored.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", refresh)
}

// A 401 that survives the refresh is terminal; the service must not
// loop refreshing.
func TestTwitterPublishSecond401IsTerminal(t *testing.T) {
	cipher := testCipher(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/oauth2/token":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "fresh-token",
				"token_type":   "bearer",
				"expires_in":   7200,
			})
		case "/2/tweets":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	accounts := newFakeAccountRepo(twitterAccount(t, cipher, "stale-token", "old-refresh"))
	svc := newTwitterServiceForTest(cipher, accounts, newFakeMediaRepo(), newFakeBlobStore(), server.URL, server.URL, nil)

	_, err := svc.Publish(context.Background(), "u1", "hello", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, accounts.tokenUpdates)
}

// A 401 during the media upload, not just the tweet call, must trigger
// the one refresh; the retried upload then runs with the fresh token.
func TestTwitterMediaUpload401TriggersRefresh(t *testing.T) {
	cipher := testCipher(t)

	uploadCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/oauth2/token":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "fresh-token",
				"token_type":   "bearer",
				"expires_in":   7200,
			})
		case "/1.1/media/upload.json":
			uploadCalls++
			if r.Header.Get("Authorization") != "Bearer fresh-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"media_id_string": "media-7",
			})
		case "/2/tweets":
			if r.Header.Get("Authorization") != "Bearer fresh-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]string{"id": "tweet-77"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	store := newFakeBlobStore()
	require.NoError(t, store.Put(context.Background(), "u1/1/key_pic.png", pngBytes, "image/png"))
	asset := &models.MediaAsset{
		ID: 1, UserID: "u1", PostID: 1, Platform: models.PlatformTwitter,
		FileName: "pic.png", MimeType: "image/png", StoragePath: "u1/1/key_pic.png",
		UploadStatus: models.UploadStatusPending,
	}
	ma := newFakeMediaRepo(asset)
	accounts := newFakeAccountRepo(twitterAccount(t, cipher, "stale-token", "old-refresh"))
	svc := newTwitterServiceForTest(cipher, accounts, ma, store, server.URL, server.URL, nil)

	externalID, err := svc.Publish(context.Background(), "u1", "with media", []*models.MediaAsset{asset})
	require.NoError(t, err)
	assert.Equal(t, "tweet-77", externalID)
	assert.Equal(t, 2, uploadCalls)
	assert.Equal(t, 1, accounts.tokenUpdates)
	assert.Equal(t, "media-7", ma.assets[1].PlatformAssetID)
	assert.Equal(t, models.UploadStatusUploaded, ma.assets[1].UploadStatus)
}

func TestTwitterPublishNoAccount(t *testing.T) {
	cipher := testCipher(t)
	svc := newTwitterServiceForTest(cipher, newFakeAccountRepo(), newFakeMediaRepo(), newFakeBlobStore(), "http://unused", "http://unused", nil)

	_, err := svc.Publish(context.Background(), "u1", "hello", nil)
	assert.ErrorIs(t, err, ErrAccountNotConnected)
}

func TestTwitterPublishAttachesMedia(t *testing.T) {
	cipher := testCipher(t)

	var tweetBody map[string]interface{}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/tweets", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&tweetBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"id": "tweet-9"},
		})
	}))
	defer api.Close()

	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"media_id_string": "media-42",
		})
	}))
	defer upload.Close()

	store := newFakeBlobStore()
	require.NoError(t, store.Put(context.Background(), "u1/1/key_pic.png", pngBytes, "image/png"))

	asset := &models.MediaAsset{
		ID: 1, UserID: "u1", PostID: 1, Platform: models.PlatformTwitter,
		FileName: "pic.png", MimeType: "image/png", StoragePath: "u1/1/key_pic.png",
		UploadStatus: models.UploadStatusPending,
	}
	ma := newFakeMediaRepo(asset)
	accounts := newFakeAccountRepo(twitterAccount(t, cipher, "token", ""))
	svc := newTwitterServiceForTest(cipher, accounts, ma, store, api.URL, upload.URL, nil)

	externalID, err := svc.Publish(context.Background(), "u1", "with media", []*models.MediaAsset{asset})
	require.NoError(t, err)
	assert.Equal(t, "tweet-9", externalID)

	media, ok := tweetBody["media"].(map[string]interface{})
	require.True(t, ok, "tweet payload should carry media ids")
	assert.Equal(t, []interface{}{"media-42"}, media["media_ids"])

	assert.Equal(t, "media-42", ma.assets[1].PlatformAssetID)
	assert.Equal(t, models.UploadStatusUploaded, ma.assets[1].UploadStatus)
}

// An asset that already carries a platform id is not uploaded again, so
// a retried publish cannot duplicate media.
func TestTwitterPublishSkipsUploadedMedia(t *testing.T) {
	cipher := testCipher(t)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"id": "tweet-10"},
		})
	}))
	defer api.Close()

	asset := &models.MediaAsset{
		ID: 1, UserID: "u1", PostID: 1, Platform: models.PlatformTwitter,
		FileName: "pic.png", PlatformAssetID: "already-there",
		UploadStatus: models.UploadStatusUploaded,
	}
	accounts := newFakeAccountRepo(twitterAccount(t, cipher, "token", ""))
	// uploadBase points nowhere; an upload attempt would fail loudly.
	svc := newTwitterServiceForTest(cipher, accounts, newFakeMediaRepo(asset), newFakeBlobStore(), api.URL, "http://127.0.0.1:1", nil)

	externalID, err := svc.Publish(context.Background(), "u1", "retry", []*models.MediaAsset{asset})
	require.NoError(t, err)
	assert.Equal(t, "tweet-10", externalID)
}

func TestTwitterMediaProcessingTimeout(t *testing.T) {
	cipher := testCipher(t)

	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"media_id_string": "media-slow",
				"processing_info": map[string]interface{}{
					"state":            "pending",
					"check_after_secs": 45,
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"media_id_string": "media-slow",
			"processing_info": map[string]interface{}{
				"state":            "in_progress",
				"check_after_secs": 0,
			},
		})
	}))
	defer upload.Close()

	store := newFakeBlobStore()
	require.NoError(t, store.Put(context.Background(), "u1/1/key_pic.png", pngBytes, "image/png"))
	asset := &models.MediaAsset{
		ID: 1, UserID: "u1", PostID: 1, Platform: models.PlatformTwitter,
		FileName: "pic.png", StoragePath: "u1/1/key_pic.png",
	}

	var sleeps []time.Duration
	accounts := newFakeAccountRepo(twitterAccount(t, cipher, "token", ""))
	svc := newTwitterServiceForTest(cipher, accounts, newFakeMediaRepo(asset), store, "http://unused", upload.URL, &sleeps)

	_, err := svc.uploadMedia(context.Background(), "token", asset)
	assert.ErrorIs(t, err, ErrProcessingTimeout)

	require.Len(t, sleeps, twitterMaxPolls)
	assert.Equal(t, twitterMaxPollDelay, sleeps[0], "45s must be clamped down to the max delay")
	for _, d := range sleeps[1:] {
		assert.Equal(t, twitterMinPollDelay, d, "0s must be clamped up to the min delay")
	}
}

func TestTwitterMediaProcessingFailure(t *testing.T) {
	cipher := testCipher(t)

	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"media_id_string": "media-bad",
			"processing_info": map[string]interface{}{
				"state": "failed",
				"error": map[string]string{"message": "unsupported image"},
			},
		})
	}))
	defer upload.Close()

	store := newFakeBlobStore()
	require.NoError(t, store.Put(context.Background(), "u1/1/key_pic.png", pngBytes, "image/png"))
	asset := &models.MediaAsset{
		ID: 1, UserID: "u1", PostID: 1, Platform: models.PlatformTwitter,
		FileName: "pic.png", StoragePath: "u1/1/key_pic.png",
	}

	accounts := newFakeAccountRepo(twitterAccount(t, cipher, "token", ""))
	svc := newTwitterServiceForTest(cipher, accounts, newFakeMediaRepo(asset), store, "http://unused", upload.URL, nil)

	_, err := svc.uploadMedia(context.Background(), "token", asset)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image")
}

func TestTwitterBeginAuthorizationCarriesPKCE(t *testing.T) {
	cipher := testCipher(t)
	states := newFakeStateRepo()
	svc := newTwitterServiceForTest(cipher, newFakeAccountRepo(), newFakeMediaRepo(), newFakeBlobStore(), "https://api.example", "https://upload.example", nil)
	svc.states = states

	authURL, err := svc.BeginAuthorization(context.Background(), "u1")
	require.NoError(t, err)
	assert.Contains(t, authURL, "code_challenge=")
	assert.Contains(t, authURL, "code_challenge_method=S256")

	require.Len(t, states.rows, 1)
	for stateToken := range states.rows {
		payload, err := utils.VerifyStateToken("test-secret", models.PlatformTwitter, stateToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", payload.UserID)
		assert.NotEmpty(t, payload.CodeVerifier)
	}
}
