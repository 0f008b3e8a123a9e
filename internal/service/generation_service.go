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
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/transfer"
)

// Output flavors produced from one piece of input content. linkedin and
// twitter feed the publish pipeline; the rest are copy the user takes
// elsewhere.
var generationTargets = []string{
	models.PlatformLinkedin,
	models.PlatformTwitter,
	"facebook",
	"instagram",
	"blog_summary",
}

var platformInstructions = map[string]string{
	models.PlatformLinkedin: "Rewrite the content as a LinkedIn post for a professional audience. Use short paragraphs, no hashtag walls, and end with a question or call to action. Maximum 2800 characters.",
	models.PlatformTwitter:  "Rewrite the content as a single tweet. Plain language, at most 280 characters, at most two hashtags.",
	"facebook":              "Rewrite the content as a Facebook post. Conversational tone, 2-4 short paragraphs, one emoji at most.",
	"instagram":             "Rewrite the content as an Instagram caption. Hook in the first line, line breaks between thoughts, 3-5 hashtags at the end.",
	"blog_summary":          "Summarize the content as a blog teaser of 2-3 sentences plus a bullet list of the key points.",
}

// ApprovalNotifier pushes an approval request out-of-band after drafts
// land. Failures are logged, never fatal to generation.
type ApprovalNotifier interface {
	NotifyApprovalRequest(ctx context.Context, post *models.GeneratedPost) error
}

type GenerationService struct {
	posts     repository.PostRepository
	jobs      repository.PublishJobRepository
	approvals repository.ApprovalRepository
	generator TextGenerator
	research  ResearchProvider
	notifier  ApprovalNotifier
}

func NewGenerationService(
	posts repository.PostRepository,
	jobs repository.PublishJobRepository,
	approvals repository.ApprovalRepository,
	generator TextGenerator,
	research ResearchProvider,
	notifier ApprovalNotifier) *GenerationService {
	return &GenerationService{
		posts:     posts,
		jobs:      jobs,
		approvals: approvals,
		generator: generator,
		research:  research,
		notifier:  notifier,
	}
}

// GenerateAll produces one draft per target platform from the input
// content. Each draft gets a pending approval request and a ledger row.
// A platform whose generation fails is skipped; the call errors only
// when nothing could be generated.
func (s *GenerationService) GenerateAll(ctx context.Context, userID, content string) ([]*models.GeneratedPost, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is required")
	}

	enriched := content
	if s.research != nil {
		topics, err := s.research.CollectTopics(ctx, userID, content)
		if err != nil {
			slog.Info(err.Error())
		} else if len(topics) > 0 {
			enriched = content + "\n\nRelated angles worth weaving in:\n- " + strings.Join(topics, "\n- ")
		}
	}

	var drafts []*models.GeneratedPost
	var lastErr error
	for _, platform := range generationTargets {
		text, err := s.generator.Generate(ctx, enriched, platformInstructions[platform])
		if err != nil {
			slog.Info(err.Error())
			lastErr = err
			continue
		}

		post := &models.GeneratedPost{
			UserID:        userID,
			Platform:      platform,
			InputContent:  content,
			GeneratedText: text,
			Status:        models.PostStatusDraft,
		}
		id, err := s.posts.Create(ctx, post)
		if err != nil {
			return drafts, err
		}
		post.ID = id

		if err := s.approvals.EnsurePending(ctx, userID, id); err != nil {
			return drafts, err
		}
		if err := s.jobs.Touch(ctx, nil, post, repository.TouchParams{
			Status: models.JobStatusDraft,
		}); err != nil {
			return drafts, err
		}

		if s.notifier != nil {
			if err := s.notifier.NotifyApprovalRequest(ctx, post); err != nil {
				slog.Info(err.Error())
			}
		}

		drafts = append(drafts, post)
	}

	if len(drafts) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("generation produced no drafts: %w", lastErr)
		}
		return nil, errors.New("generation produced no drafts")
	}
	return drafts, nil
}

// groqGenerator is the TextGenerator against the Groq OpenAI-compatible
// chat API, trying the configured model first and falling back to the
// known-good ones when it errors.
type groqGenerator struct {
	cfg    cfg.Config
	client *http.Client
}

func NewGroqGenerator(c cfg.Config) TextGenerator {
	return &groqGenerator{
		cfg:    c,
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

func (g *groqGenerator) modelChain() []string {
	chain := []string{g.cfg.GroqModel, "llama-3.1-8b-instant", "llama-3.3-70b-versatile"}
	seen := make(map[string]bool, len(chain))
	var out []string
	for _, m := range chain {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

func (g *groqGenerator) Generate(ctx context.Context, content, instruction string) (string, error) {
	if g.cfg.GroqAPIKey == "" {
		return "", errors.New("GROQ_API_KEY is required")
	}

	var lastErr error
	for _, model := range g.modelChain() {
		text, err := g.complete(ctx, model, content, instruction)
		if err == nil {
			return text, nil
		}
		slog.Info(err.Error())
		lastErr = err
	}
	return "", lastErr
}

func (g *groqGenerator) complete(ctx context.Context, model, content, instruction string) (string, error) {
	payload := transfer.GroqChatRequest{
		Model: model,
		Messages: []transfer.GroqChatMessage{
			{Role: "system", Content: "You are a social media copywriter. Return only the final text, with no preamble and no quotation marks around it."},
			{Role: "user", Content: instruction + "\n\nContent:\n" + content},
		},
		Temperature: 0.7,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.GroqAPIBaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.GroqAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("groq completion failed for %s (%d): %s", model, resp.StatusCode, readBodySnippet(resp, 300))
	}

	var result transfer.GroqChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("groq completion for %s returned no choices", model)
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("groq completion for %s returned empty text", model)
	}
	return text, nil
}
