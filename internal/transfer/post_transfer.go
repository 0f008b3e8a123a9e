package transfer

import "time"

type GenerateRequest struct {
	Content string `json:"content"`
}

type UpdatePostRequest struct {
	EditedText string `json:"edited_text"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ScheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

type PublishNowRequest struct {
	Confirm bool `json:"confirm"`
}

type UploadMediaRequest struct {
	PostID        int64  `json:"post_id"`
	FileName      string `json:"file_name"`
	MimeType      string `json:"mime_type"`
	ContentBase64 string `json:"content_base64"`
}

type PublishResult struct {
	ExternalPostID string `json:"external_post_id"`
}
