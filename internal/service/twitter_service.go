package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	cfg "github.com/Eman-gul457/Content-Repurposing-Agent/configs"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
	"github.com/Eman-gul457/Content-Repurposing-Agent/pkg/utils"
)

const (
	twitterStateTTL     = 15 * time.Minute
	twitterMaxPolls     = 10
	twitterMinPollDelay = 1 * time.Second
	twitterMaxPollDelay = 30 * time.Second
)

type twitterService struct {
	cfg    cfg.Config
	sa     repository.SocialAccountRepository
	states repository.OAuthStateRepository
	ma     repository.MediaAssetRepository
	store  BlobStore
	cipher *utils.TokenCipher
	client *http.Client

	authBase   string
	apiBase    string
	uploadBase string
	sleep      func(time.Duration)
}

func NewTwitterService(
	c cfg.Config,
	sa repository.SocialAccountRepository,
	states repository.OAuthStateRepository,
	ma repository.MediaAssetRepository,
	store BlobStore,
	cipher *utils.TokenCipher) Connector {
	return &twitterService{
		cfg:        c,
		sa:         sa,
		states:     states,
		ma:         ma,
		store:      store,
		cipher:     cipher,
		client:     &http.Client{Timeout: 60 * time.Second},
		authBase:   "https://twitter.com",
		apiBase:    "https://api.twitter.com",
		uploadBase: "https://upload.twitter.com",
		sleep:      time.Sleep,
	}
}

func (s *twitterService) Platform() string { return models.PlatformTwitter }

func (s *twitterService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.TwitterClientID,
		ClientSecret: s.cfg.TwitterClientSecret,
		RedirectURL:  s.cfg.TwitterRedirectURI,
		Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.authBase + "/i/oauth2/authorize",
			TokenURL:  s.apiBase + "/2/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (s *twitterService) BeginAuthorization(ctx context.Context, userID string) (string, error) {
	if s.cfg.TwitterClientID == "" || s.cfg.TwitterRedirectURI == "" {
		return "", errors.New("TWITTER_CLIENT_ID and TWITTER_REDIRECT_URI are required")
	}

	// PKCE verifier rides inside the signed state so the callback can
	// complete the exchange without server-side session storage.
	verifier := oauth2.GenerateVerifier()

	state, err := utils.IssueStateToken(s.cfg.StateSigningSecret, utils.StatePayload{
		UserID:       userID,
		Provider:     models.PlatformTwitter,
		CodeVerifier: verifier,
	}, twitterStateTTL)
	if err != nil {
		return "", err
	}

	if _, err := s.states.Create(ctx, &models.OAuthState{
		UserID:     userID,
		Provider:   models.PlatformTwitter,
		StateToken: state,
	}); err != nil {
		return "", err
	}

	return s.oauthConfig().AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

func (s *twitterService) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", utils.ErrStateInvalid
	}

	payload, err := utils.VerifyStateToken(s.cfg.StateSigningSecret, models.PlatformTwitter, state)
	if err != nil {
		return "", err
	}
	if payload.CodeVerifier == "" {
		return "", utils.ErrStateInvalid
	}

	row, err := s.states.GetByToken(ctx, state)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", ErrStateNotFound
	}
	if payload.UserID == "" || payload.UserID != row.UserID {
		return "", ErrUserMismatch
	}
	if err := s.states.Delete(ctx, row.ID); err != nil {
		return "", err
	}

	token, err := s.oauthConfig().Exchange(ctx, code, oauth2.VerifierOption(payload.CodeVerifier))
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("twitter token exchange failed: %w", err)
	}
	if token.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	profile, err := s.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return "", err
	}
	if profile.Data.ID == "" {
		return "", errors.New("twitter profile response missing account id")
	}
	accountName := profile.Data.Username
	if accountName == "" {
		accountName = profile.Data.Name
	}

	encryptedAccessToken, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return "", err
	}
	encryptedRefreshToken := ""
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = s.cipher.Encrypt(token.RefreshToken)
		if err != nil {
			return "", err
		}
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		t := token.Expiry.UTC()
		expiresAt = &t
	}

	_, err = s.sa.Upsert(ctx, &models.SocialAccount{
		UserID:         payload.UserID,
		Platform:       models.PlatformTwitter,
		AccountID:      profile.Data.ID,
		AccountName:    accountName,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: expiresAt,
	})
	if err != nil {
		return "", err
	}

	return payload.UserID, nil
}

func (s *twitterService) fetchProfile(ctx context.Context, accessToken string) (*transfer.TwitterUserResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+"/2/users/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter profile fetch failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 300))
	}

	var profile transfer.TwitterUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &profile, nil
}

func (s *twitterService) Publish(ctx context.Context, userID, content string, media []*models.MediaAsset) (string, error) {
	account, err := s.sa.GetByUserAndPlatform(ctx, userID, models.PlatformTwitter)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", fmt.Errorf("twitter: %w", ErrAccountNotConnected)
	}

	token, err := s.cipher.Decrypt(account.AccessToken)
	if err != nil {
		return "", err
	}

	externalID, err := s.publishOnce(ctx, token, content, media)
	if errors.Is(err, ErrUnauthorized) && account.RefreshToken != "" {
		if err := s.RefreshToken(ctx, account); err != nil {
			return "", err
		}
		account, err = s.sa.GetByUserAndPlatform(ctx, userID, models.PlatformTwitter)
		if err != nil {
			return "", err
		}
		token, err = s.cipher.Decrypt(account.AccessToken)
		if err != nil {
			return "", err
		}
		return s.publishOnce(ctx, token, content, media)
	}
	return externalID, err
}

func (s *twitterService) publishOnce(ctx context.Context, token, content string, media []*models.MediaAsset) (string, error) {
	var mediaIDs []string
	for _, item := range media {
		if item.PlatformAssetID == "" {
			mediaID, err := s.uploadMedia(ctx, token, item)
			if err != nil {
				if errors.Is(err, ErrUnauthorized) {
					return "", err
				}
				item.UploadStatus = models.UploadStatusFailed
				item.LastError = err.Error()
				if uerr := s.ma.SetUploadResult(ctx, item.ID, "", models.UploadStatusFailed, err.Error()); uerr != nil {
					return "", uerr
				}
				return "", fmt.Errorf("media upload failed for %s: %w", item.FileName, err)
			}
			item.PlatformAssetID = mediaID
			item.UploadStatus = models.UploadStatusUploaded
			item.LastError = ""
			if err := s.ma.SetUploadResult(ctx, item.ID, mediaID, models.UploadStatusUploaded, ""); err != nil {
				return "", err
			}
		}
		mediaIDs = append(mediaIDs, item.PlatformAssetID)
	}

	payload := transfer.TweetCreateRequest{Text: content}
	if len(mediaIDs) > 0 {
		payload.Media = &transfer.TweetMedia{MediaIDs: mediaIDs}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/2/tweets", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("twitter publish: %w", ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("twitter publish failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 300))
	}

	var result transfer.TweetCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	return result.Data.ID, nil
}

// uploadMedia sends the asset bytes base64-encoded to the v1.1 media
// endpoint, then polls processing_info until the platform reports the
// media usable. Up to ten polls, with the wait clamped between one and
// thirty seconds regardless of what check_after_secs says.
func (s *twitterService) uploadMedia(ctx context.Context, token string, item *models.MediaAsset) (string, error) {
	blob, err := s.store.Get(ctx, item.StoragePath)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("media_data", base64.StdEncoding.EncodeToString(blob))
	form.Set("media_category", "tweet_image")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.uploadBase+"/1.1/media/upload.json", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("twitter media upload: %w", ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("twitter media upload failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 300))
	}

	var upload transfer.TwitterMediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if upload.MediaIDString == "" {
		return "", errors.New("twitter media upload response missing media id")
	}

	return upload.MediaIDString, s.awaitProcessing(ctx, token, upload.MediaIDString, upload.ProcessingInfo)
}

func (s *twitterService) awaitProcessing(ctx context.Context, token, mediaID string, info *transfer.TwitterProcessingInfo) error {
	for polls := 0; ; polls++ {
		if info == nil || info.State == "succeeded" {
			return nil
		}
		if info.State == "failed" {
			msg := "unknown error"
			if info.Error != nil && info.Error.Message != "" {
				msg = info.Error.Message
			}
			return fmt.Errorf("twitter media processing failed: %s", msg)
		}
		if polls >= twitterMaxPolls {
			return ErrProcessingTimeout
		}

		delay := time.Duration(info.CheckAfterSecs) * time.Second
		if delay < twitterMinPollDelay {
			delay = twitterMinPollDelay
		}
		if delay > twitterMaxPollDelay {
			delay = twitterMaxPollDelay
		}
		s.sleep(delay)

		var err error
		info, err = s.pollProcessing(ctx, token, mediaID)
		if err != nil {
			return err
		}
	}
}

func (s *twitterService) pollProcessing(ctx context.Context, token, mediaID string) (*transfer.TwitterProcessingInfo, error) {
	pollURL := fmt.Sprintf("%s/1.1/media/upload.json?command=STATUS&media_id=%s", s.uploadBase, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("twitter media status: %w", ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("twitter media status failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 300))
	}

	var status transfer.TwitterMediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return status.ProcessingInfo, nil
}

func (s *twitterService) RefreshToken(ctx context.Context, acc *models.SocialAccount) error {
	if acc.RefreshToken == "" {
		return fmt.Errorf("twitter refresh: %w", ErrNotSupported)
	}

	refreshToken, err := s.cipher.Decrypt(acc.RefreshToken)
	if err != nil {
		return err
	}

	token, err := s.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("twitter token refresh failed: %w", err)
	}
	if token.AccessToken == "" {
		return ErrNoAccessToken
	}

	encryptedAccessToken, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return err
	}

	// Twitter rotates refresh tokens on use. Persist the new one when
	// present; UpdateTokens keeps the old one if the response omits it.
	encryptedRefreshToken := ""
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = s.cipher.Encrypt(token.RefreshToken)
		if err != nil {
			return err
		}
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		t := token.Expiry.UTC()
		expiresAt = &t
	}

	return s.sa.UpdateTokens(ctx, acc.UserID, models.PlatformTwitter, encryptedAccessToken, encryptedRefreshToken, expiresAt)
}
