package service

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
)

var (
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	pdfBytes  = []byte("%PDF-1.4\n%fake")
)

func newMediaServiceForTest(platform string, existing ...*models.MediaAsset) (*MediaService, *fakeBlobStore, *fakeMediaRepo) {
	posts := newFakePostRepo(&models.GeneratedPost{
		ID: 1, UserID: "u1", Platform: platform, Status: models.PostStatusDraft,
	})
	ma := newFakeMediaRepo(existing...)
	store := newFakeBlobStore()
	return NewMediaService(posts, ma, store), store, ma
}

func uploadReq(content []byte) *transfer.UploadMediaRequest {
	return &transfer.UploadMediaRequest{
		PostID:        1,
		FileName:      "picture.png",
		MimeType:      "image/png",
		ContentBase64: base64.StdEncoding.EncodeToString(content),
	}
}

func TestUploadStoresAndRecords(t *testing.T) {
	svc, store, _ := newMediaServiceForTest(models.PlatformLinkedin)

	asset, err := svc.Upload(context.Background(), "u1", uploadReq(pngBytes))
	require.NoError(t, err)

	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, int64(len(pngBytes)), asset.FileSize)
	assert.Equal(t, models.UploadStatusPending, asset.UploadStatus)
	assert.True(t, strings.HasPrefix(asset.StoragePath, "u1/1/"))
	assert.NotEmpty(t, asset.FileURL)
	assert.Contains(t, store.blobs, asset.StoragePath)
}

// The sniffed type wins over whatever mime the client declared.
func TestUploadIgnoresDeclaredMimeType(t *testing.T) {
	svc, _, _ := newMediaServiceForTest(models.PlatformTwitter)

	req := uploadReq(jpegBytes)
	req.MimeType = "image/png"
	asset, err := svc.Upload(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", asset.MimeType)
}

func TestUploadPDFPolicy(t *testing.T) {
	linkedinSvc, _, _ := newMediaServiceForTest(models.PlatformLinkedin)
	asset, err := linkedinSvc.Upload(context.Background(), "u1", uploadReq(pdfBytes))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", asset.MimeType)

	twitterSvc, _, _ := newMediaServiceForTest(models.PlatformTwitter)
	_, err = twitterSvc.Upload(context.Background(), "u1", uploadReq(pdfBytes))
	assert.ErrorIs(t, err, ErrMediaTypeNotAllowed)
}

func TestUploadRejectsUnknownContent(t *testing.T) {
	svc, _, _ := newMediaServiceForTest(models.PlatformLinkedin)

	_, err := svc.Upload(context.Background(), "u1", uploadReq([]byte("just some text")))
	assert.ErrorIs(t, err, ErrMediaTypeNotAllowed)
}

func TestUploadRejectsOversize(t *testing.T) {
	svc, _, _ := newMediaServiceForTest(models.PlatformLinkedin)

	big := make([]byte, maxMediaBytes+1)
	copy(big, pngBytes)
	_, err := svc.Upload(context.Background(), "u1", uploadReq(big))
	assert.ErrorIs(t, err, ErrMediaTooLarge)
}

func TestUploadRejectsBadBase64(t *testing.T) {
	svc, _, _ := newMediaServiceForTest(models.PlatformLinkedin)

	req := uploadReq(pngBytes)
	req.ContentBase64 = "%%% not base64 %%%"
	_, err := svc.Upload(context.Background(), "u1", req)
	assert.Error(t, err)
}

func TestUploadEnforcesAttachmentLimit(t *testing.T) {
	existing := make([]*models.MediaAsset, 0, 4)
	for i := 0; i < 4; i++ {
		existing = append(existing, &models.MediaAsset{
			UserID: "u1", PostID: 1, Platform: models.PlatformTwitter,
		})
	}
	svc, _, _ := newMediaServiceForTest(models.PlatformTwitter, existing...)

	_, err := svc.Upload(context.Background(), "u1", uploadReq(pngBytes))
	assert.ErrorIs(t, err, ErrAttachmentLimit)
}

func TestUploadUnknownPost(t *testing.T) {
	svc, _, _ := newMediaServiceForTest(models.PlatformLinkedin)

	req := uploadReq(pngBytes)
	req.PostID = 99
	_, err := svc.Upload(context.Background(), "u1", req)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestListPostMediaRefreshesURLs(t *testing.T) {
	asset := &models.MediaAsset{
		UserID: "u1", PostID: 1, Platform: models.PlatformLinkedin,
		StoragePath: "u1/1/abc_file.png", FileURL: "stale",
	}
	svc, _, ma := newMediaServiceForTest(models.PlatformLinkedin, asset)

	assets, err := svc.ListPostMedia(context.Background(), "u1", 1)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.NotEqual(t, "stale", assets[0].FileURL)
	assert.Equal(t, assets[0].FileURL, ma.assets[asset.ID].FileURL)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "file", sanitizeFileName(""))
	assert.Equal(t, "report.pdf", sanitizeFileName("report.pdf"))
	assert.Equal(t, "my_photo_1.png", sanitizeFileName("my photo 1.png"))
	assert.Equal(t, ".._.._etc_passwd", sanitizeFileName("../../etc/passwd"))
}
