package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/repository"
	"github.com/cirotrigo/studio-lagosta/internal/transfer"
	"github.com/cirotrigo/studio-lagosta/pkg/utils"
)

const webhookTestTimeout = 10 * time.Second

// WebhookService ingests the platform's inbound story/feed events and
// offers the operator dry-run delivery check.
type WebhookService interface {
	HandlePlatformEvent(ctx context.Context, payload *transfer.PlatformWebhookPayload) error
	TestWebhook(ctx context.Context, url string) (*transfer.WebhookTestResult, error)
}

type webhookService struct {
	se           repository.StoryEventRepository
	pr           repository.PostRepository
	pl           repository.PostLogRepository
	verification VerificationService
	client       *http.Client
}

func NewWebhookService(
	se repository.StoryEventRepository,
	pr repository.PostRepository,
	pl repository.PostLogRepository,
	verification VerificationService) WebhookService {
	return &webhookService{
		se:           se,
		pr:           pr,
		pl:           pl,
		verification: verification,
		client:       &http.Client{Timeout: webhookTestTimeout},
	}
}

// HandlePlatformEvent assumes the payload already passed Validate at
// the boundary; malformed events never reach this far.
func (s *webhookService) HandlePlatformEvent(ctx context.Context, payload *transfer.PlatformWebhookPayload) error {
	switch payload.Type {
	case "story":
		return s.handleStory(ctx, payload.Story)
	case "feed":
		return s.handleFeed(ctx, payload.Feed)
	case "weekly_report":
		slog.Info("weekly report received",
			"instagram_username", payload.WeeklyReport.InstagramUsername,
			"week_start", payload.WeeklyReport.WeekStart)
		return nil
	default:
		return fmt.Errorf("unknown webhook type %q", payload.Type)
	}
}

func (s *webhookService) handleStory(ctx context.Context, p *transfer.StoryEventPayload) error {
	takenAt, err := time.Parse(time.RFC3339, p.TakenAt)
	if err != nil {
		return fmt.Errorf("taken_at is not a valid timestamp: %w", err)
	}

	event := &models.StoryEvent{
		EventType:         models.StoryEventTypeStory,
		InstagramUsername: p.InstagramUsername,
		StoryID:           p.StoryID,
		Caption:           p.Caption,
		Permalink:         p.Permalink,
		MediaType:         p.MediaType,
		MediaURL:          p.MediaURL,
		TakenAt:           takenAt,
	}

	id, err := s.se.Create(ctx, event)
	if err != nil {
		return err
	}
	event.ID = id

	return s.verification.HandleStoryEvent(ctx, event)
}

// handleFeed confirms feed/reel posts the user published by hand after
// a reminder: a tag match flips the post to POSTED with the real
// permalink.
func (s *webhookService) handleFeed(ctx context.Context, p *transfer.FeedEventPayload) error {
	takenAt, err := time.Parse(time.RFC3339, p.TakenAt)
	if err != nil {
		return fmt.Errorf("taken_at is not a valid timestamp: %w", err)
	}

	event := &models.StoryEvent{
		EventType:         models.StoryEventTypeFeed,
		InstagramUsername: p.InstagramUsername,
		StoryID:           p.MediaID,
		Caption:           p.Caption,
		Permalink:         p.Permalink,
		MediaType:         p.MediaType,
		TakenAt:           takenAt,
	}
	if _, err := s.se.Create(ctx, event); err != nil {
		return err
	}

	tag := utils.ExtractVerificationTag(p.Caption)
	if tag == "" {
		return nil
	}

	post, err := s.pr.GetByVerificationTag(ctx, tag)
	if err != nil {
		return err
	}
	if post == nil || post.Status == models.PostStatusPosted {
		return nil
	}

	permalink := p.Permalink
	providerStatus := "published"
	if err := s.pr.SetDispatchResult(ctx, post.ID, nil, &providerStatus, &permalink, &takenAt); err != nil {
		return err
	}
	for _, from := range []string{models.PostStatusScheduled, models.PostStatusPosting} {
		claimed, err := s.pr.UpdateStatusFrom(ctx, post.ID, from, models.PostStatusPosted)
		if err != nil {
			return err
		}
		if claimed {
			break
		}
	}

	_, err = s.pl.Append(ctx, &models.PostLog{
		PostID:  post.ID,
		Event:   models.LogEventPublished,
		Message: "publication confirmed by platform webhook",
	})
	if err != nil {
		slog.Info(err.Error())
	}
	return nil
}

// TestWebhook dry-runs delivery to a configured URL and reports raw
// status, body and timing. No post state is mutated.
func (s *webhookService) TestWebhook(ctx context.Context, url string) (*transfer.WebhookTestResult, error) {
	body := strings.NewReader(`{"type":"test"}`)

	reqCtx, cancel := context.WithTimeout(ctx, webhookTestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook test delivery failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	return &transfer.WebhookTestResult{
		StatusCode: resp.StatusCode,
		Body:       string(bytes.ToValidUTF8(respBody, []byte(""))),
		DurationMS: time.Since(start).Milliseconds(),
	}, nil
}
