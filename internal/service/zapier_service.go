package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/transfer"
)

// ZapierService is the legacy automation-provider adapter. It delivers
// the post payload to the project's configured webhook; the automation
// tool owns the actual posting, so only the HTTP status is consumed.
type ZapierService interface {
	ProviderAdapter
}

type zapierService struct {
	client *http.Client
}

func NewZapierService() ZapierService {
	return &zapierService{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *zapierService) deliver(ctx context.Context, project *models.Project, post *models.Post, kind string) (*ProviderResult, error) {
	if project.WebhookURL == nil || *project.WebhookURL == "" {
		return nil, errors.New("project has no automation webhook configured")
	}

	payload := transfer.ZapierPostPayload{
		Type:      kind,
		PostID:    post.ID,
		PostType:  post.PostType,
		Caption:   post.Caption,
		MediaURLs: post.MediaURLs,
	}
	if post.AltText != nil {
		payload.AltText = *post.AltText
	}
	if post.FirstComment != nil {
		payload.FirstComment = *post.FirstComment
	}
	if post.ScheduledDatetime != nil {
		payload.ScheduledFor = post.ScheduledDatetime.Format(time.RFC3339)
	}
	if post.Recurring != nil {
		payload.Recurring = post.Recurring
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *project.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return &ProviderResult{Status: "delivered"}, nil
}

func (s *zapierService) CreatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error) {
	return s.deliver(ctx, project, post, "publish")
}

func (s *zapierService) UpdatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error) {
	return s.deliver(ctx, project, post, "update")
}

func (s *zapierService) GetPostAnalytics(ctx context.Context, project *models.Project, externalID string) (*models.AnalyticsSnapshot, error) {
	return nil, errors.New("automation provider does not expose analytics")
}
