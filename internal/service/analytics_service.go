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

const (
	// AnalyticsFreshness is the window before previously-fetched
	// metrics go stale.
	AnalyticsFreshness = 12 * time.Hour

	// AnalyticsBatchCap bounds one sync run to stay under provider
	// rate limits.
	AnalyticsBatchCap = 100
)

type AnalyticsSyncReport struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// AnalyticsService refreshes engagement metrics for published posts
// that carry a scheduling-API identifier.
type AnalyticsService interface {
	SyncDue(ctx context.Context, now time.Time) (*AnalyticsSyncReport, error)
	ForceRefresh(ctx context.Context, postID int64) (*models.AnalyticsSnapshot, error)
}

type analyticsService struct {
	pr    repository.PostRepository
	pj    repository.ProjectRepository
	later LaterService
}

func NewAnalyticsService(pr repository.PostRepository, pj repository.ProjectRepository, later LaterService) AnalyticsService {
	return &analyticsService{pr: pr, pj: pj, later: later}
}

func (s *analyticsService) SyncDue(ctx context.Context, now time.Time) (*AnalyticsSyncReport, error) {
	posts, err := s.pr.ListStaleAnalytics(ctx, now.Add(-AnalyticsFreshness), AnalyticsBatchCap)
	if err != nil {
		return nil, err
	}

	report := &AnalyticsSyncReport{}
	for _, post := range posts {
		// One post failing must not abort the batch; its stale
		// analytics_fetched_at keeps it eligible for the next run.
		if err := s.refresh(ctx, post, now); err != nil {
			slog.Info("analytics refresh failed", "post_id", post.ID, "error", err.Error())
			report.Failed++
			continue
		}
		report.Updated++
	}
	return report, nil
}

func (s *analyticsService) refresh(ctx context.Context, post *models.Post, now time.Time) error {
	project, err := s.pj.GetByID(ctx, post.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("project %d not found", post.ProjectID)
	}

	snapshot, err := s.later.GetPostAnalytics(ctx, project, *post.ExternalPostID)
	if err != nil {
		return err
	}

	return s.pr.UpdateAnalytics(ctx, post.ID, *snapshot, now)
}

// ForceRefresh bypasses the freshness window but keeps the POSTED and
// scheduling-API-identifier requirements. It is synchronous; the raw
// provider error surfaces to the caller.
func (s *analyticsService) ForceRefresh(ctx context.Context, postID int64) (*models.AnalyticsSnapshot, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %d not found", postID)
	}
	if post.Status != models.PostStatusPosted {
		return nil, errors.New("analytics are only available for published posts")
	}
	if post.ExternalPostID == nil || *post.ExternalPostID == "" {
		return nil, errors.New("post has no scheduling-API identifier")
	}

	project, err := s.pj.GetByID(ctx, post.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project %d not found", post.ProjectID)
	}

	snapshot, err := s.later.GetPostAnalytics(ctx, project, *post.ExternalPostID)
	if err != nil {
		return nil, err
	}

	if err := s.pr.UpdateAnalytics(ctx, post.ID, *snapshot, time.Now()); err != nil {
		return nil, err
	}
	return snapshot, nil
}
