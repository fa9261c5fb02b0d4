package service

import (
	"context"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/repository"
)

const (
	// ReminderLeadTime is how far ahead of the scheduled time the
	// reminder webhook fires.
	ReminderLeadTime = 5 * time.Minute

	// SchedulerPeriod is the polling interval of the periodic trigger.
	// Lead time and period together size the reminder window so a post
	// is visited once per tick until its reminder is claimed.
	SchedulerPeriod = 5 * time.Minute
)

// SchedulerService answers "what is due right now". It never dispatches
// anything itself.
type SchedulerService interface {
	DuePublish(ctx context.Context, now time.Time) ([]*models.Post, error)
	DueReminders(ctx context.Context, now time.Time) ([]*models.Post, error)
	ActiveRecurring(ctx context.Context, now time.Time) ([]*models.Post, error)
	UpcomingCount(ctx context.Context, now time.Time) (int, error)
}

type schedulerService struct {
	pr repository.PostRepository
}

func NewSchedulerService(pr repository.PostRepository) SchedulerService {
	return &schedulerService{pr: pr}
}

func (s *schedulerService) DuePublish(ctx context.Context, now time.Time) ([]*models.Post, error) {
	return s.pr.ListDueForPublish(ctx, now)
}

// DueReminders returns posts whose scheduled time falls in
// [now, now + lead + period], ascending. The lower bound reaches back to
// now rather than now + lead so a post whose webhook failed on the
// previous tick is retried until reminder_sent_at claims it.
func (s *schedulerService) DueReminders(ctx context.Context, now time.Time) ([]*models.Post, error) {
	return s.pr.ListDueForReminder(ctx, now, now.Add(ReminderLeadTime+SchedulerPeriod))
}

// ActiveRecurring filters recurring rules whose end date has not passed.
// Expired rules keep their rows but stop counting as upcoming work;
// occurrence-level dispatch is delegated to the automation provider.
func (s *schedulerService) ActiveRecurring(ctx context.Context, now time.Time) ([]*models.Post, error) {
	posts, err := s.pr.ListRecurring(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if post.RecurringActive(now) {
			active = append(active, post)
		}
	}
	return active, nil
}

func (s *schedulerService) UpcomingCount(ctx context.Context, now time.Time) (int, error) {
	count, err := s.pr.CountScheduledAfter(ctx, now)
	if err != nil {
		return 0, err
	}

	recurring, err := s.ActiveRecurring(ctx, now)
	if err != nil {
		return 0, err
	}
	return count + len(recurring), nil
}
