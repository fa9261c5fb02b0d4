package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/repository"
)

// PublishService routes a post to the owning project's configured
// provider and walks the post through SCHEDULED -> POSTING -> POSTED or
// FAILED. Adapter errors are returned untouched so the caller can hand
// them to the retry manager.
type PublishService interface {
	Publish(ctx context.Context, postID int64) error
	DispatchDue(ctx context.Context, now time.Time) (int, error)
	AdapterFor(project *models.Project) (ProviderAdapter, error)
}

type publishService struct {
	pr       repository.PostRepository
	pj       repository.ProjectRepository
	pl       repository.PostLogRepository
	later    LaterService
	zapier   ZapierService
	enqueuer TaskEnqueuer
}

func NewPublishService(
	pr repository.PostRepository,
	pj repository.ProjectRepository,
	pl repository.PostLogRepository,
	later LaterService,
	zapier ZapierService,
	enqueuer TaskEnqueuer) PublishService {
	return &publishService{
		pr:       pr,
		pj:       pj,
		pl:       pl,
		later:    later,
		zapier:   zapier,
		enqueuer: enqueuer,
	}
}

func (s *publishService) AdapterFor(project *models.Project) (ProviderAdapter, error) {
	switch project.PostingProvider {
	case models.ProviderLaterAPI:
		return s.later, nil
	case models.ProviderZapier:
		return s.zapier, nil
	default:
		return nil, fmt.Errorf("project %d has unknown posting provider %q", project.ID, project.PostingProvider)
	}
}

// DispatchDue enqueues a publish task for every due post. Without a
// task enqueuer the posts are published inline.
func (s *publishService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	posts, err := s.pr.ListDueForPublish(ctx, now)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, post := range posts {
		if s.enqueuer != nil {
			if err := s.enqueuer.EnqueuePublish(post.ID, 0); err != nil {
				slog.Info(err.Error())
				continue
			}
			dispatched++
			continue
		}
		if err := s.Publish(ctx, post.ID); err != nil {
			slog.Info(err.Error())
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

func (s *publishService) Publish(ctx context.Context, postID int64) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %d not found", postID)
	}

	// A concurrent run that already published this post is a no-op.
	if post.Status == models.PostStatusPosted {
		return nil
	}

	if !s.claimForPosting(ctx, post) {
		return nil
	}

	project, err := s.pj.GetByID(ctx, post.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		s.failPost(ctx, post.ID, "owning project not found")
		return errors.New("owning project not found")
	}

	adapter, err := s.AdapterFor(project)
	if err != nil {
		s.failPost(ctx, post.ID, err.Error())
		return err
	}

	result, err := adapter.CreatePost(ctx, project, post)
	if err != nil {
		s.failPost(ctx, post.ID, err.Error())
		return err
	}

	// Only the scheduling-API provider reports an external id; a stored
	// id from a previous provider configuration is never overwritten.
	var externalID *string
	if result.ExternalID != "" {
		externalID = &result.ExternalID
	}
	var permalink *string
	if result.Permalink != "" {
		permalink = &result.Permalink
	}
	providerStatus := result.Status

	if err := s.pr.SetDispatchResult(ctx, post.ID, externalID, &providerStatus, permalink, result.PublishedAt); err != nil {
		return err
	}
	if _, err := s.pr.UpdateStatusFrom(ctx, post.ID, models.PostStatusPosting, models.PostStatusPosted); err != nil {
		return err
	}

	s.appendLog(ctx, post.ID, models.LogEventSent,
		fmt.Sprintf("dispatched via %s", project.PostingProvider))
	return nil
}

// claimForPosting transitions the post into POSTING via a conditional
// update. Exactly one of two overlapping runs wins the claim; a run that
// finds the post already POSTING (a previous killed run) takes over.
func (s *publishService) claimForPosting(ctx context.Context, post *models.Post) bool {
	for _, from := range []string{models.PostStatusScheduled, models.PostStatusFailed} {
		claimed, err := s.pr.UpdateStatusFrom(ctx, post.ID, from, models.PostStatusPosting)
		if err != nil {
			slog.Info(err.Error())
			return false
		}
		if claimed {
			return true
		}
	}
	return post.Status == models.PostStatusPosting
}

func (s *publishService) failPost(ctx context.Context, postID int64, message string) {
	if err := s.pr.SetStatus(ctx, postID, models.PostStatusFailed); err != nil {
		slog.Info(err.Error())
	}
	s.appendLog(ctx, postID, models.LogEventFailed, message)
}

func (s *publishService) appendLog(ctx context.Context, postID int64, event, message string) {
	_, err := s.pl.Append(ctx, &models.PostLog{PostID: postID, Event: event, Message: message})
	if err != nil {
		slog.Info(err.Error())
	}
}
