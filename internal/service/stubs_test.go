package service

import (
	"context"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/transfer"
)

type stubLaterService struct {
	result    *ProviderResult
	analytics *models.AnalyticsSnapshot
	err       error
	// errFor fails GetPostAnalytics for one external id only.
	errFor      string
	createCalls int
}

func (s *stubLaterService) CreatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error) {
	s.createCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubLaterService) UpdatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubLaterService) GetPostAnalytics(ctx context.Context, project *models.Project, externalID string) (*models.AnalyticsSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.errFor != "" && externalID == s.errFor {
		return nil, &ProviderError{Code: models.VerificationErrAPIError, Message: "boom"}
	}
	return s.analytics, nil
}

func (s *stubLaterService) GetPost(ctx context.Context, project *models.Project, externalID string) (*transfer.LaterPostResponse, error) {
	return nil, nil
}

func (s *stubLaterService) ListAccounts(ctx context.Context, project *models.Project) ([]*transfer.LaterAccount, error) {
	return nil, nil
}

type stubZapierService struct {
	result      *ProviderResult
	err         error
	createCalls int
}

func (s *stubZapierService) CreatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error) {
	s.createCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubZapierService) UpdatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubZapierService) GetPostAnalytics(ctx context.Context, project *models.Project, externalID string) (*models.AnalyticsSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

type stubPublisher struct {
	err   error
	calls []int64
}

func (s *stubPublisher) Publish(ctx context.Context, postID int64) error {
	s.calls = append(s.calls, postID)
	return s.err
}

type stubEnqueuer struct {
	published []int64
	retried   []int64
	delays    []time.Duration
}

func (s *stubEnqueuer) EnqueuePublish(postID int64, delay time.Duration) error {
	s.published = append(s.published, postID)
	s.delays = append(s.delays, delay)
	return nil
}

func (s *stubEnqueuer) EnqueueRetry(retryID int64, delay time.Duration) error {
	s.retried = append(s.retried, retryID)
	s.delays = append(s.delays, delay)
	return nil
}
