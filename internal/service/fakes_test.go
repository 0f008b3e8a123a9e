package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
)

type fakePostRepo struct {
	posts  map[int64]*models.GeneratedPost
	nextID int64
}

func newFakePostRepo(posts ...*models.GeneratedPost) *fakePostRepo {
	r := &fakePostRepo{posts: make(map[int64]*models.GeneratedPost), nextID: 1}
	for _, p := range posts {
		if p.ID == 0 {
			p.ID = r.nextID
		}
		if p.ID >= r.nextID {
			r.nextID = p.ID + 1
		}
		r.posts[p.ID] = p
	}
	return r
}

func (r *fakePostRepo) Create(_ context.Context, post *models.GeneratedPost) (int64, error) {
	post.ID = r.nextID
	r.nextID++
	r.posts[post.ID] = post
	return post.ID, nil
}

func (r *fakePostRepo) GetByIDForUser(_ context.Context, id int64, userID string) (*models.GeneratedPost, error) {
	p, ok := r.posts[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakePostRepo) ListByUser(_ context.Context, userID string) ([]*models.GeneratedPost, error) {
	var out []*models.GeneratedPost
	for _, p := range r.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) ListDue(_ context.Context, now time.Time) ([]*models.GeneratedPost, error) {
	var out []*models.GeneratedPost
	for _, p := range r.posts {
		if p.Status == models.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePostRepo) UpdateStatus(_ context.Context, _ *sql.Tx, postID int64, status string) error {
	r.posts[postID].Status = status
	return nil
}

func (r *fakePostRepo) SetEditedText(_ context.Context, postID int64, editedText string) error {
	r.posts[postID].EditedText = editedText
	return nil
}

func (r *fakePostRepo) MarkScheduled(_ context.Context, _ *sql.Tx, postID int64, scheduledAt time.Time) error {
	p := r.posts[postID]
	p.Status = models.PostStatusScheduled
	p.ScheduledAt = &scheduledAt
	return nil
}

func (r *fakePostRepo) MarkPosted(_ context.Context, _ *sql.Tx, postID int64, postedAt time.Time, externalPostID string) error {
	p := r.posts[postID]
	p.Status = models.PostStatusPosted
	p.PostedAt = &postedAt
	p.ExternalPostID = externalPostID
	p.LastError = ""
	return nil
}

func (r *fakePostRepo) MarkFailed(_ context.Context, _ *sql.Tx, postID int64, lastError string) error {
	p := r.posts[postID]
	p.Status = models.PostStatusFailed
	p.LastError = lastError
	return nil
}

type fakeMediaRepo struct {
	assets map[int64]*models.MediaAsset
	nextID int64
}

func newFakeMediaRepo(assets ...*models.MediaAsset) *fakeMediaRepo {
	r := &fakeMediaRepo{assets: make(map[int64]*models.MediaAsset), nextID: 1}
	for _, a := range assets {
		if a.ID == 0 {
			a.ID = r.nextID
		}
		if a.ID >= r.nextID {
			r.nextID = a.ID + 1
		}
		r.assets[a.ID] = a
	}
	return r
}

func (r *fakeMediaRepo) Create(_ context.Context, asset *models.MediaAsset) (int64, error) {
	asset.ID = r.nextID
	r.nextID++
	r.assets[asset.ID] = asset
	return asset.ID, nil
}

func (r *fakeMediaRepo) ListByPost(_ context.Context, userID string, postID int64) ([]*models.MediaAsset, error) {
	var out []*models.MediaAsset
	for _, a := range r.assets {
		if a.UserID == userID && a.PostID == postID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) CountByPost(_ context.Context, userID string, postID int64) (int, error) {
	assets, _ := r.ListByPost(context.Background(), userID, postID)
	return len(assets), nil
}

func (r *fakeMediaRepo) SetUploadResult(_ context.Context, assetID int64, platformAssetID, status, lastError string) error {
	a := r.assets[assetID]
	a.PlatformAssetID = platformAssetID
	a.UploadStatus = status
	a.LastError = lastError
	return nil
}

func (r *fakeMediaRepo) SetFileURL(_ context.Context, assetID int64, fileURL string) error {
	r.assets[assetID].FileURL = fileURL
	return nil
}

type fakeAccountRepo struct {
	accounts     map[string]*models.SocialAccount
	tokenUpdates int
}

func accountKey(userID, platform string) string { return userID + "/" + platform }

func newFakeAccountRepo(accounts ...*models.SocialAccount) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[string]*models.SocialAccount)}
	for _, a := range accounts {
		r.accounts[accountKey(a.UserID, a.Platform)] = a
	}
	return r
}

func (r *fakeAccountRepo) GetByUserAndPlatform(_ context.Context, userID, platform string) (*models.SocialAccount, error) {
	a, ok := r.accounts[accountKey(userID, platform)]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAccountRepo) Upsert(_ context.Context, sa *models.SocialAccount) (int64, error) {
	r.accounts[accountKey(sa.UserID, sa.Platform)] = sa
	return 1, nil
}

func (r *fakeAccountRepo) UpdateTokens(_ context.Context, userID, platform, accessToken, refreshToken string, expiresAt *time.Time) error {
	a, ok := r.accounts[accountKey(userID, platform)]
	if !ok {
		return sql.ErrNoRows
	}
	a.AccessToken = accessToken
	if refreshToken != "" {
		a.RefreshToken = refreshToken
	}
	a.TokenExpiresAt = expiresAt
	r.tokenUpdates++
	return nil
}

func (r *fakeAccountRepo) ListByUser(_ context.Context, userID string) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListExpiringBefore(_ context.Context, deadline time.Time) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range r.accounts {
		if a.TokenExpiresAt != nil && !a.TokenExpiresAt.After(deadline) && a.RefreshToken != "" {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeStateRepo struct {
	rows   map[string]*models.OAuthState
	nextID int64
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{rows: make(map[string]*models.OAuthState), nextID: 1}
}

func (r *fakeStateRepo) Create(_ context.Context, state *models.OAuthState) (int64, error) {
	state.ID = r.nextID
	r.nextID++
	r.rows[state.StateToken] = state
	return state.ID, nil
}

func (r *fakeStateRepo) GetByToken(_ context.Context, token string) (*models.OAuthState, error) {
	return r.rows[token], nil
}

func (r *fakeStateRepo) Delete(_ context.Context, id int64) error {
	for token, row := range r.rows {
		if row.ID == id {
			delete(r.rows, token)
		}
	}
	return nil
}

// fakeTxRunner hands the callback a nil tx (the fakes ignore it) and
// remembers the context state each run saw.
type fakeTxRunner struct {
	runs    int
	ctxErrs []error
}

func (r *fakeTxRunner) RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	r.runs++
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return fn(nil)
}

type touchRecord struct {
	postID int64
	params repository.TouchParams
}

type fakeJobRepo struct {
	touches []touchRecord
}

func (r *fakeJobRepo) Touch(_ context.Context, _ *sql.Tx, post *models.GeneratedPost, params repository.TouchParams) error {
	r.touches = append(r.touches, touchRecord{postID: post.ID, params: params})
	return nil
}

func (r *fakeJobRepo) GetByPost(_ context.Context, userID string, postID int64) (*models.PublishJob, error) {
	return nil, nil
}

type fakeApprovalRepo struct {
	pending  []int64
	resolved map[int64]string
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{resolved: make(map[int64]string)}
}

func (r *fakeApprovalRepo) EnsurePending(_ context.Context, userID string, postID int64) error {
	r.pending = append(r.pending, postID)
	return nil
}

func (r *fakeApprovalRepo) Resolve(_ context.Context, userID string, postID int64, status, note string) error {
	r.resolved[postID] = status
	return nil
}

func (r *fakeApprovalRepo) GetByPost(_ context.Context, userID string, postID int64) (*models.ApprovalRequest, error) {
	return nil, nil
}

type fakeBlobStore struct {
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.blobs[key] = data
	return nil
}

func (s *fakeBlobStore) SignURL(_ context.Context, key string, _ int64) (string, error) {
	return fmt.Sprintf("https://storage.test/%s?signed=1", key), nil
}

func (s *fakeBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("no blob at %s", key)
	}
	return data, nil
}

func (s *fakeBlobStore) EnsureBucket(context.Context) error { return nil }
