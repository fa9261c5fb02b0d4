package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/repository"
)

const (
	// MaxRetryAttempts is the bound after which the retry row and the
	// parent post both go terminal FAILED.
	MaxRetryAttempts = 3

	// RetryWindow is the inspection window; older rows belong to the
	// retention collaborator.
	RetryWindow = 7 * 24 * time.Hour
)

var retryDelays = []time.Duration{10 * time.Minute, 30 * time.Minute, 2 * time.Hour}

type RetryRunReport struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Publisher is the slice of PublishService the retry manager needs.
type Publisher interface {
	Publish(ctx context.Context, postID int64) error
}

type RetryService interface {
	Enqueue(ctx context.Context, postID int64, cause error) (int64, error)
	Drain(ctx context.Context, now time.Time) ([]*models.PostRetry, error)
	Attempt(ctx context.Context, retryID int64) error
	RunDue(ctx context.Context, now time.Time) (*RetryRunReport, error)
}

type retryService struct {
	rr       repository.PostRetryRepository
	pr       repository.PostRepository
	pl       repository.PostLogRepository
	pub      Publisher
	enqueuer TaskEnqueuer
}

func NewRetryService(
	rr repository.PostRetryRepository,
	pr repository.PostRepository,
	pl repository.PostLogRepository,
	pub Publisher,
	enqueuer TaskEnqueuer) RetryService {
	return &retryService{
		rr:       rr,
		pr:       pr,
		pl:       pl,
		pub:      pub,
		enqueuer: enqueuer,
	}
}

func (s *retryService) Enqueue(ctx context.Context, postID int64, cause error) (int64, error) {
	delay := retryDelays[0]
	retry := &models.PostRetry{
		PostID:        postID,
		Status:        models.RetryStatusPending,
		AttemptCount:  0,
		NextAttemptAt: time.Now().Add(delay),
		LastError:     cause.Error(),
	}

	id, err := s.rr.Create(ctx, retry)
	if err != nil {
		return 0, err
	}

	s.appendLog(ctx, postID, models.LogEventRetried,
		fmt.Sprintf("dispatch failed, retry scheduled in %s: %s", delay, cause.Error()))

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueRetry(id, delay); err != nil {
			slog.Info(err.Error())
		}
	}
	return id, nil
}

func (s *retryService) Drain(ctx context.Context, now time.Time) ([]*models.PostRetry, error) {
	return s.rr.ListDue(ctx, now, now.Add(-RetryWindow))
}

// Attempt re-runs the dispatch for one retry row. A successful attempt
// marks the row SUCCESS and leaves it for cleanup, preserving the audit
// trail; exhausting the attempt budget fails the row and the post.
func (s *retryService) Attempt(ctx context.Context, retryID int64) error {
	retry, err := s.rr.GetByID(ctx, retryID)
	if err != nil {
		return err
	}
	if retry == nil || retry.Status != models.RetryStatusPending {
		return nil
	}

	err = s.pub.Publish(ctx, retry.PostID)
	if err == nil {
		return s.rr.MarkStatus(ctx, retryID, models.RetryStatusSuccess, "")
	}

	attempts := retry.AttemptCount + 1
	if attempts >= MaxRetryAttempts {
		if markErr := s.rr.MarkStatus(ctx, retryID, models.RetryStatusFailed, err.Error()); markErr != nil {
			return markErr
		}
		if statusErr := s.pr.SetStatus(ctx, retry.PostID, models.PostStatusFailed); statusErr != nil {
			return statusErr
		}
		s.appendLog(ctx, retry.PostID, models.LogEventFailed,
			fmt.Sprintf("gave up after %d attempts: %s", attempts, err.Error()))
		return nil
	}

	delay := retryDelays[len(retryDelays)-1]
	if attempts < len(retryDelays) {
		delay = retryDelays[attempts]
	}
	if incErr := s.rr.IncrementAttempt(ctx, retryID, time.Now().Add(delay), err.Error()); incErr != nil {
		return incErr
	}
	s.appendLog(ctx, retry.PostID, models.LogEventRetried,
		fmt.Sprintf("attempt %d failed, next in %s: %s", attempts, delay, err.Error()))

	if s.enqueuer != nil {
		if enqErr := s.enqueuer.EnqueueRetry(retryID, delay); enqErr != nil {
			slog.Info(enqErr.Error())
		}
	}
	return nil
}

// RunDue is the periodic sweep used when the task queue is unavailable
// or a scheduled task was lost.
func (s *retryService) RunDue(ctx context.Context, now time.Time) (*RetryRunReport, error) {
	retries, err := s.Drain(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &RetryRunReport{}
	for _, retry := range retries {
		report.Attempted++
		if err := s.Attempt(ctx, retry.ID); err != nil {
			slog.Info(err.Error())
			report.Failed++
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

func (s *retryService) appendLog(ctx context.Context, postID int64, event, message string) {
	_, err := s.pl.Append(ctx, &models.PostLog{PostID: postID, Event: event, Message: message})
	if err != nil {
		slog.Info(err.Error())
	}
}
