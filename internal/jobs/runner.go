package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron"

	"github.com/cirotrigo/studio-lagosta/internal/service"
)

// Runner is the in-process fallback for the periodic triggers. In
// production each tick arrives as an authenticated HTTP call; the
// runner exists for single-binary deployments and is stoppable so tests
// and shutdown paths can cancel it cleanly.
type Runner struct {
	c         *cron.Cron
	publish   service.PublishService
	reminder  service.ReminderService
	verifier  service.VerificationService
	retry     service.RetryService
	analytics service.AnalyticsService
}

func NewRunner(
	publish service.PublishService,
	reminder service.ReminderService,
	verifier service.VerificationService,
	retry service.RetryService,
	analytics service.AnalyticsService) *Runner {
	return &Runner{
		c:         cron.New(),
		publish:   publish,
		reminder:  reminder,
		verifier:  verifier,
		retry:     retry,
		analytics: analytics,
	}
}

func (r *Runner) Start() {
	r.c.AddFunc("@every 00h01m00s", r.runPublish)
	r.c.AddFunc("@every 00h05m00s", r.runReminders)
	r.c.AddFunc("@every 00h10m00s", r.runVerification)
	r.c.AddFunc("@every 00h10m00s", r.runRetries)
	r.c.AddFunc("@every 06h00m00s", r.runAnalytics)
	r.c.Start()
}

func (r *Runner) Stop() {
	r.c.Stop()
}

func (r *Runner) runPublish() {
	ctx := context.Background()
	dispatched, err := r.publish.DispatchDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if dispatched > 0 {
		slog.Info("publish sweep", "dispatched", dispatched)
	}
}

func (r *Runner) runReminders() {
	ctx := context.Background()
	report, err := r.reminder.DispatchDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if report.Sent+report.Failed+report.Skipped > 0 {
		slog.Info("reminder sweep", "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	}
}

func (r *Runner) runVerification() {
	ctx := context.Background()
	report, err := r.verifier.ReconcileDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if report.Verified+report.Errored > 0 {
		slog.Info("verification sweep", "verified", report.Verified, "errored", report.Errored)
	}
}

func (r *Runner) runRetries() {
	ctx := context.Background()
	report, err := r.retry.RunDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if report.Attempted > 0 {
		slog.Info("retry sweep", "attempted", report.Attempted, "succeeded", report.Succeeded, "failed", report.Failed)
	}
}

func (r *Runner) runAnalytics() {
	ctx := context.Background()
	report, err := r.analytics.SyncDue(ctx, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return
	}
	slog.Info("analytics sweep", "updated", report.Updated, "failed", report.Failed)
}
