package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/repository"
	"github.com/cirotrigo/studio-lagosta/internal/transfer"
)

const reminderTimeout = 10 * time.Second

type ReminderRunReport struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ReminderService sends the pre-publish webhook for manually-published
// posts. Delivery is at-least-once: reminder_sent_at is only set after
// a 2xx response, so a failed delivery is retried on the next tick.
type ReminderService interface {
	DispatchDue(ctx context.Context, now time.Time) (*ReminderRunReport, error)
}

type reminderService struct {
	scheduler SchedulerService
	pr        repository.PostRepository
	pj        repository.ProjectRepository
	pl        repository.PostLogRepository
	client    *http.Client
}

func NewReminderService(
	scheduler SchedulerService,
	pr repository.PostRepository,
	pj repository.ProjectRepository,
	pl repository.PostLogRepository) ReminderService {
	return &reminderService{
		scheduler: scheduler,
		pr:        pr,
		pj:        pj,
		pl:        pl,
		client:    &http.Client{Timeout: reminderTimeout},
	}
}

func (s *reminderService) DispatchDue(ctx context.Context, now time.Time) (*ReminderRunReport, error) {
	posts, err := s.scheduler.DueReminders(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &ReminderRunReport{}
	for _, post := range posts {
		project, err := s.pj.GetByID(ctx, post.ProjectID)
		if err != nil {
			report.Failed++
			continue
		}
		if project == nil || project.WebhookReminderURL == nil || *project.WebhookReminderURL == "" {
			slog.Info("skipping reminder, no reminder webhook configured", "post_id", post.ID)
			report.Skipped++
			continue
		}

		if err := s.deliver(ctx, post, project); err != nil {
			slog.Info(err.Error())
			report.Failed++
			continue
		}

		// The flag is set only after a 2xx response. A second overlapping
		// run that lost the claim is a correct no-op.
		claimed, err := s.pr.MarkReminderSent(ctx, post.ID, time.Now())
		if err != nil {
			report.Failed++
			continue
		}
		if claimed {
			s.appendLog(ctx, post.ID, models.LogEventReminderSent, "reminder webhook delivered")
			report.Sent++
		}
	}
	return report, nil
}

func (s *reminderService) deliver(ctx context.Context, post *models.Post, project *models.Project) error {
	payload := transfer.ReminderPayload{
		Type: "reminder",
		Post: transfer.ReminderPost{
			ID:        post.ID,
			Content:   post.Caption,
			Platform:  "instagram",
			PostType:  post.PostType,
			MediaURLs: post.MediaURLs,
		},
		Project: transfer.ReminderProject{
			ID:   project.ID,
			Name: project.Name,
		},
	}
	if post.ScheduledDatetime != nil {
		payload.Post.ScheduledFor = post.ScheduledDatetime.Format(time.RFC3339)
	}
	if post.AltText != nil {
		payload.Post.ExtraInfo = *post.AltText
	}
	if post.FirstComment != nil {
		payload.Post.FirstComment = *post.FirstComment
	}
	if project.InstagramUsername != nil {
		payload.Project.InstagramUsername = *project.InstagramUsername
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, reminderTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, *project.WebhookReminderURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("reminder delivery failed for post %d: %w", post.ID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reminder webhook for post %d returned status %d", post.ID, resp.StatusCode)
	}
	return nil
}

func (s *reminderService) appendLog(ctx context.Context, postID int64, event, message string) {
	_, err := s.pl.Append(ctx, &models.PostLog{PostID: postID, Event: event, Message: message})
	if err != nil {
		slog.Info(err.Error())
	}
}
