package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/transfer"
)

type reminderReceiver struct {
	mu       sync.Mutex
	status   int
	payloads []transfer.ReminderPayload
}

func (r *reminderReceiver) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var payload transfer.ReminderPayload
		json.NewDecoder(req.Body).Decode(&payload)
		r.mu.Lock()
		r.payloads = append(r.payloads, payload)
		status := r.status
		r.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (r *reminderReceiver) setStatus(status int) {
	r.mu.Lock()
	r.status = status
	r.mu.Unlock()
}

func (r *reminderReceiver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func newReminderFixture(t *testing.T, receiver *reminderReceiver) (ReminderService, *fakePostRepo, *fakeProjectRepo, *fakePostLogRepo, string) {
	t.Helper()
	server := httptest.NewServer(receiver.handler())
	t.Cleanup(server.Close)

	posts := newFakePostRepo()
	projects := newFakeProjectRepo()
	logs := newFakePostLogRepo()
	service := NewReminderService(NewSchedulerService(posts), posts, projects, logs)
	return service, posts, projects, logs, server.URL
}

func TestReminderDispatchIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 55, 0, 0, time.UTC)
	receiver := &reminderReceiver{status: http.StatusOK}
	service, posts, projects, logs, url := newReminderFixture(t, receiver)

	projects.add(&models.Project{
		ID:                 1,
		Name:               "Lagosta",
		WebhookReminderURL: &url,
		InstagramUsername:  strPtr("lagosta.studio"),
	})
	post := posts.add(&models.Post{
		ProjectID:         1,
		PostType:          models.PostTypeStory,
		Caption:           "launch day",
		MediaURLs:         []string{"https://cdn.example.com/a.jpg"},
		PublishType:       models.PublishTypeReminder,
		Status:            models.PostStatusScheduled,
		ScheduledDatetime: timePtr(now.Add(5 * time.Minute)),
	})

	report, err := service.DispatchDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)

	// The post is still inside the window on the next tick, but the
	// claimed flag keeps a second webhook from firing.
	report, err = service.DispatchDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 1, receiver.count())

	stored, err := posts.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReminderSentAt)

	entries, err := logs.ListByPostID(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogEventReminderSent, entries[0].Event)

	payload := receiver.payloads[0]
	assert.Equal(t, "reminder", payload.Type)
	assert.Equal(t, "launch day", payload.Post.Content)
	assert.Equal(t, "instagram", payload.Post.Platform)
	assert.Equal(t, "lagosta.studio", payload.Project.InstagramUsername)
}

func TestReminderRetriedAfterFailedDelivery(t *testing.T) {
	firstRun := time.Date(2025, 6, 10, 14, 55, 0, 0, time.UTC)
	receiver := &reminderReceiver{status: http.StatusInternalServerError}
	service, posts, projects, _, url := newReminderFixture(t, receiver)

	projects.add(&models.Project{ID: 1, Name: "Lagosta", WebhookReminderURL: &url})
	post := posts.add(&models.Post{
		ProjectID:         1,
		PublishType:       models.PublishTypeReminder,
		Status:            models.PostStatusScheduled,
		ScheduledDatetime: timePtr(firstRun.Add(5 * time.Minute)),
	})

	report, err := service.DispatchDue(context.Background(), firstRun)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	stored, _ := posts.GetByID(context.Background(), post.ID)
	assert.Nil(t, stored.ReminderSentAt, "failed delivery must not claim the post")

	// The webhook recovers; the next tick still sees the post because
	// the window reaches back to now.
	receiver.setStatus(http.StatusOK)
	report, err = service.DispatchDue(context.Background(), firstRun.Add(SchedulerPeriod))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)

	stored, _ = posts.GetByID(context.Background(), post.ID)
	assert.NotNil(t, stored.ReminderSentAt)
}

func TestReminderSkipsProjectWithoutWebhook(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 55, 0, 0, time.UTC)
	receiver := &reminderReceiver{status: http.StatusOK}
	service, posts, projects, _, _ := newReminderFixture(t, receiver)

	projects.add(&models.Project{ID: 1, Name: "No Webhook"})
	posts.add(&models.Post{
		ProjectID:         1,
		PublishType:       models.PublishTypeReminder,
		Status:            models.PostStatusScheduled,
		ScheduledDatetime: timePtr(now.Add(5 * time.Minute)),
	})

	report, err := service.DispatchDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, receiver.count())
}

func TestReminderDeliversInScheduleOrder(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 55, 0, 0, time.UTC)
	receiver := &reminderReceiver{status: http.StatusOK}
	service, posts, projects, _, url := newReminderFixture(t, receiver)

	projects.add(&models.Project{ID: 1, Name: "Lagosta", WebhookReminderURL: &url})
	later := posts.add(&models.Post{
		ProjectID:         1,
		PublishType:       models.PublishTypeReminder,
		Status:            models.PostStatusScheduled,
		ScheduledDatetime: timePtr(now.Add(8 * time.Minute)),
	})
	sooner := posts.add(&models.Post{
		ProjectID:         1,
		PublishType:       models.PublishTypeReminder,
		Status:            models.PostStatusScheduled,
		ScheduledDatetime: timePtr(now.Add(2 * time.Minute)),
	})

	report, err := service.DispatchDue(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 2, report.Sent)

	require.Len(t, receiver.payloads, 2)
	assert.Equal(t, sooner.ID, receiver.payloads[0].Post.ID)
	assert.Equal(t, later.ID, receiver.payloads[1].Post.ID)
}
