package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	cfg "github.com/Eman-gul457/Content-Repurposing-Agent/configs"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
	"github.com/Eman-gul457/Content-Repurposing-Agent/pkg/utils"
)

const (
	linkedinStateTTL      = 10 * time.Minute
	recipeFeedshareImage  = "urn:li:digitalmediaRecipe:feedshare-image"
	recipeFeedshareDoc    = "urn:li:digitalmediaRecipe:feedshare-document"
	mediaUploadAttempts   = 3
	defaultTokenLifetime  = 3600
	restliProtocolVersion = "2.0.0"
)

type linkedinService struct {
	cfg    cfg.Config
	sa     repository.SocialAccountRepository
	states repository.OAuthStateRepository
	ma     repository.MediaAssetRepository
	store  BlobStore
	cipher *utils.TokenCipher
	client *http.Client

	authBase string
	apiBase  string
}

func NewLinkedinService(
	c cfg.Config,
	sa repository.SocialAccountRepository,
	states repository.OAuthStateRepository,
	ma repository.MediaAssetRepository,
	store BlobStore,
	cipher *utils.TokenCipher) Connector {
	return &linkedinService{
		cfg:      c,
		sa:       sa,
		states:   states,
		ma:       ma,
		store:    store,
		cipher:   cipher,
		client:   &http.Client{Timeout: 60 * time.Second},
		authBase: "https://www.linkedin.com",
		apiBase:  "https://api.linkedin.com",
	}
}

func (s *linkedinService) Platform() string { return models.PlatformLinkedin }

func (s *linkedinService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.LinkedinClientID,
		ClientSecret: s.cfg.LinkedinClientSecret,
		RedirectURL:  s.cfg.LinkedinRedirectURI,
		Scopes:       []string{"openid", "profile", "w_member_social"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.authBase + "/oauth/v2/authorization",
			TokenURL:  s.authBase + "/oauth/v2/accessToken",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (s *linkedinService) BeginAuthorization(ctx context.Context, userID string) (string, error) {
	if s.cfg.LinkedinClientID == "" || s.cfg.LinkedinRedirectURI == "" {
		return "", errors.New("LINKEDIN_CLIENT_ID and LINKEDIN_REDIRECT_URI are required")
	}

	state, err := utils.IssueStateToken(s.cfg.StateSigningSecret, utils.StatePayload{
		UserID:   userID,
		Provider: models.PlatformLinkedin,
	}, linkedinStateTTL)
	if err != nil {
		return "", err
	}

	if _, err := s.states.Create(ctx, &models.OAuthState{
		UserID:     userID,
		Provider:   models.PlatformLinkedin,
		StateToken: state,
	}); err != nil {
		return "", err
	}

	return s.oauthConfig().AuthCodeURL(state), nil
}

func (s *linkedinService) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", utils.ErrStateInvalid
	}

	payload, err := utils.VerifyStateToken(s.cfg.StateSigningSecret, models.PlatformLinkedin, state)
	if err != nil {
		return "", err
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

	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("linkedin token exchange failed: %w", err)
	}
	if token.AccessToken == "" {
		return "", ErrNoAccessToken
	}

	userInfo, err := s.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return "", err
	}
	if userInfo.Sub == "" {
		return "", errors.New("linkedin userinfo response missing account id")
	}
	accountName := userInfo.Name
	if accountName == "" {
		accountName = "LinkedIn User"
	}

	encryptedAccessToken, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return "", err
	}

	expiry := token.Expiry.UTC()
	if token.Expiry.IsZero() {
		expiry = time.Now().UTC().Add(defaultTokenLifetime * time.Second)
	}

	_, err = s.sa.Upsert(ctx, &models.SocialAccount{
		UserID:         payload.UserID,
		Platform:       models.PlatformLinkedin,
		AccountID:      userInfo.Sub,
		AccountName:    accountName,
		AccessToken:    encryptedAccessToken,
		TokenExpiresAt: &expiry,
	})
	if err != nil {
		return "", err
	}

	return payload.UserID, nil
}

func (s *linkedinService) fetchUserInfo(ctx context.Context, accessToken string) (*transfer.LinkedinUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+"/v2/userinfo", nil)
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
		return nil, fmt.Errorf("linkedin profile fetch failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 300))
	}

	var userInfo transfer.LinkedinUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}

func (s *linkedinService) Publish(ctx context.Context, userID, content string, media []*models.MediaAsset) (string, error) {
	account, err := s.sa.GetByUserAndPlatform(ctx, userID, models.PlatformLinkedin)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", fmt.Errorf("linkedin: %w", ErrAccountNotConnected)
	}

	token, err := s.cipher.Decrypt(account.AccessToken)
	if err != nil {
		return "", err
	}

	externalID, err := s.publishOnce(ctx, account, token, content, media)
	if errors.Is(err, ErrUnauthorized) && account.RefreshToken != "" {
		if err := s.RefreshToken(ctx, account); err != nil {
			return "", err
		}
		account, err = s.sa.GetByUserAndPlatform(ctx, userID, models.PlatformLinkedin)
		if err != nil {
			return "", err
		}
		token, err = s.cipher.Decrypt(account.AccessToken)
		if err != nil {
			return "", err
		}
		return s.publishOnce(ctx, account, token, content, media)
	}
	return externalID, err
}

func (s *linkedinService) publishOnce(ctx context.Context, account *models.SocialAccount, token, content string, media []*models.MediaAsset) (string, error) {
	author := "urn:li:person:" + account.AccountID

	if err := s.ensureMediaAssets(ctx, token, author, media); err != nil {
		return "", err
	}

	shareMediaCategory := "NONE"
	var shareMedia []transfer.LinkedinShareMedia
	if len(media) > 0 && !hasPDF(media) {
		shareMediaCategory = "IMAGE"
		for _, item := range media {
			shareMedia = append(shareMedia, transfer.LinkedinShareMedia{
				Status: "READY",
				Media:  item.PlatformAssetID,
				Title:  transfer.LinkedinText{Text: item.FileName},
			})
		}
	}

	payload := transfer.LinkedinShareRequest{
		Author:         author,
		LifecycleState: "PUBLISHED",
		SpecificContent: transfer.LinkedinSpecificContent{
			ShareContent: transfer.LinkedinShareContent{
				ShareCommentary:    transfer.LinkedinText{Text: content},
				ShareMediaCategory: shareMediaCategory,
				Media:              shareMedia,
			},
		},
		Visibility: transfer.LinkedinVisibility{MemberNetworkVisibility: "PUBLIC"},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/v2/ugcPosts", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("linkedin publish: %w", ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("linkedin publish failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 300))
	}

	return resp.Header.Get("x-restli-id"), nil
}

func hasPDF(media []*models.MediaAsset) bool {
	for _, item := range media {
		if item.MimeType == "application/pdf" {
			return true
		}
	}
	return false
}

// ensureMediaAssets runs the two-phase register+PUT upload for every
// asset that has no platform asset id yet. Each asset gets up to three
// attempts; the last error lands on the asset row, and a fully failed
// asset fails the whole publish naming the file.
func (s *linkedinService) ensureMediaAssets(ctx context.Context, token, ownerURN string, media []*models.MediaAsset) error {
	for _, item := range media {
		if item.PlatformAssetID != "" {
			continue
		}

		var lastError string
		for attempt := 0; attempt < mediaUploadAttempts; attempt++ {
			asset, uploadURL, err := s.registerAsset(ctx, token, ownerURN, item.MimeType)
			if err == nil {
				var blob []byte
				blob, err = s.store.Get(ctx, item.StoragePath)
				if err == nil {
					err = s.uploadBinary(ctx, uploadURL, token, item.MimeType, blob)
				}
				if err == nil {
					item.PlatformAssetID = asset
					item.UploadStatus = models.UploadStatusUploaded
					item.LastError = ""
					if err := s.ma.SetUploadResult(ctx, item.ID, asset, models.UploadStatusUploaded, ""); err != nil {
						return err
					}
					break
				}
			}
			if errors.Is(err, ErrUnauthorized) {
				return err
			}
			lastError = err.Error()
			item.UploadStatus = models.UploadStatusFailed
			item.LastError = lastError
			if err := s.ma.SetUploadResult(ctx, item.ID, "", models.UploadStatusFailed, lastError); err != nil {
				return err
			}
		}

		if item.PlatformAssetID == "" {
			return fmt.Errorf("media upload failed for %s: %s", item.FileName, lastError)
		}
	}
	return nil
}

func (s *linkedinService) registerAsset(ctx context.Context, token, ownerURN, mimeType string) (asset, uploadURL string, err error) {
	recipe := recipeFeedshareImage
	if mimeType == "application/pdf" {
		recipe = recipeFeedshareDoc
	}

	payload := transfer.LinkedinRegisterUploadRequest{
		RegisterUploadRequest: transfer.LinkedinRegisterUpload{
			Recipes: []string{recipe},
			Owner:   ownerURN,
			ServiceRelationships: []transfer.LinkedinServiceRelationship{
				{RelationshipType: "OWNER", Identifier: "urn:li:userGeneratedContent"},
			},
		},
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBase+"/v2/assets?action=registerUpload", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Restli-Protocol-Version", restliProtocolVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", "", fmt.Errorf("linkedin asset register: %w", ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("linkedin asset register failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 200))
	}

	var result transfer.LinkedinRegisterUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", "", err
	}

	asset = result.Value.Asset
	uploadURL = result.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL
	if asset == "" || uploadURL == "" {
		return "", "", errors.New("linkedin asset register response incomplete")
	}
	return asset, uploadURL, nil
}

func (s *linkedinService) uploadBinary(ctx context.Context, uploadURL, token, mimeType string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mimeType)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("linkedin binary upload: %w", ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("linkedin binary upload failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 200))
	}
	return nil
}

func (s *linkedinService) RefreshToken(ctx context.Context, acc *models.SocialAccount) error {
	if acc.RefreshToken == "" {
		return fmt.Errorf("linkedin refresh: %w", ErrNotSupported)
	}

	refreshToken, err := s.cipher.Decrypt(acc.RefreshToken)
	if err != nil {
		return err
	}

	token, err := s.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("linkedin token refresh failed: %w", err)
	}
	if token.AccessToken == "" {
		return ErrNoAccessToken
	}

	encryptedAccessToken, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return err
	}
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

	return s.sa.UpdateTokens(ctx, acc.UserID, models.PlatformLinkedin, encryptedAccessToken, encryptedRefreshToken, expiresAt)
}
