package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	cfg "github.com/Eman-gul457/Content-Repurposing-Agent/configs"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/models"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
	"github.com/Eman-gul457/Content-Repurposing-Agent/pkg/utils"
)

const whatsappGraphBase = "https://graph.facebook.com/v22.0"

// WhatsAppService sends approval requests to the configured reviewer
// numbers through the Cloud API. It tries the template message first
// (required to open a conversation) and falls back to a plain text
// message for conversations already open.
type WhatsAppService struct {
	cfg      cfg.Config
	client   *http.Client
	graphURL string
}

func NewWhatsAppService(c cfg.Config) *WhatsAppService {
	return &WhatsAppService{
		cfg:      c,
		client:   &http.Client{Timeout: 30 * time.Second},
		graphURL: whatsappGraphBase,
	}
}

func (s *WhatsAppService) Enabled() bool {
	return s.cfg.WhatsApp.AccessToken != "" && s.cfg.WhatsApp.PhoneNumberID != "" && s.cfg.WhatsApp.Recipients != ""
}

func (s *WhatsAppService) recipients() []string {
	var out []string
	for _, r := range strings.Split(s.cfg.WhatsApp.Recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// NotifyApprovalRequest sends the draft preview plus signed approve and
// reject links to every reviewer. One failed recipient does not stop
// the others.
func (s *WhatsAppService) NotifyApprovalRequest(ctx context.Context, post *models.GeneratedPost) error {
	if !s.Enabled() {
		return nil
	}

	token, err := utils.IssueApprovalToken(s.cfg.StateSigningSecret, post.UserID, post.ID)
	if err != nil {
		return err
	}
	approveURL := fmt.Sprintf("%s/approvals/approve?token=%s", s.cfg.FrontendURL, token)
	rejectURL := fmt.Sprintf("%s/approvals/reject?token=%s", s.cfg.FrontendURL, token)

	preview := post.Content()
	if len(preview) > 400 {
		preview = preview[:400] + "..."
	}
	body := fmt.Sprintf("New %s draft ready for review:\n\n%s\n\nApprove: %s\nReject: %s",
		post.Platform, preview, approveURL, rejectURL)

	var lastErr error
	for _, to := range s.recipients() {
		if err := s.sendTemplate(ctx, to, post.Platform); err != nil {
			slog.Info(err.Error())
		}
		if err := s.sendText(ctx, to, body); err != nil {
			slog.Info(err.Error())
			lastErr = err
		}
	}
	return lastErr
}

func (s *WhatsAppService) sendText(ctx context.Context, to, body string) error {
	return s.send(ctx, transfer.WhatsAppTextMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             transfer.WhatsAppText{Body: body},
	})
}

func (s *WhatsAppService) sendTemplate(ctx context.Context, to, platform string) error {
	return s.send(ctx, transfer.WhatsAppTemplateMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: transfer.WhatsAppTemplate{
			Name:     s.cfg.WhatsApp.TemplateName,
			Language: transfer.WhatsAppTemplateLanguage{Code: s.cfg.WhatsApp.TemplateLang},
			Components: []transfer.WhatsAppTemplateComponent{
				{
					Type: "body",
					Parameters: []transfer.WhatsAppTemplateParameter{
						{Type: "text", Text: platform},
					},
				},
			},
		},
	})
}

func (s *WhatsAppService) send(ctx context.Context, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", s.graphURL, s.cfg.WhatsApp.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.WhatsApp.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("whatsapp send failed (%d): %s", resp.StatusCode, readBodySnippet(resp, 300))
	}

	var result transfer.WhatsAppSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return err
	}
	if len(result.Messages) == 0 {
		return errors.New("whatsapp send returned no message id")
	}
	return nil
}
