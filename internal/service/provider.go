package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
)

// ProviderResult is what an adapter reports back after a dispatch.
// ExternalID is only set by the scheduling-API provider; the automation
// provider consumes a webhook and reports nothing structured.
type ProviderResult struct {
	ExternalID  string
	Status      string
	Permalink   string
	PublishedAt *time.Time
}

// ProviderAdapter is the single capability both delivery providers
// implement. The router picks one per post at dispatch time.
type ProviderAdapter interface {
	CreatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error)
	UpdatePost(ctx context.Context, project *models.Project, post *models.Post) (*ProviderResult, error)
	GetPostAnalytics(ctx context.Context, project *models.Project, externalID string) (*models.AnalyticsSnapshot, error)
}

// ProviderError carries the taxonomy code for a failed provider call so
// the verification and retry layers can classify it without parsing
// message text.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func providerErrorFromStatus(statusCode int, message string) *ProviderError {
	code := models.VerificationErrAPIError
	switch statusCode {
	case 401:
		code = models.VerificationErrTokenError
	case 403:
		code = models.VerificationErrPermission
	case 404:
		code = models.VerificationErrNotFound
	case 429:
		code = models.VerificationErrRateLimited
	}
	return &ProviderError{Code: code, Message: message}
}

// TaskEnqueuer schedules deferred work on the task queue. A nil
// enqueuer makes callers fall back to the periodic sweeps, which keeps
// the services testable without Redis.
type TaskEnqueuer interface {
	EnqueuePublish(postID int64, delay time.Duration) error
	EnqueueRetry(retryID int64, delay time.Duration) error
}
