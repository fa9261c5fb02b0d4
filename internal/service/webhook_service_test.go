package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cirotrigo/studio-lagosta/internal/models"
	"github.com/cirotrigo/studio-lagosta/internal/transfer"
)

type webhookFixture struct {
	service  WebhookService
	posts    *fakePostRepo
	events   *fakeStoryEventRepo
	logs     *fakePostLogRepo
	verifier VerificationService
}

func newWebhookFixture() *webhookFixture {
	posts := newFakePostRepo()
	events := newFakeStoryEventRepo()
	logs := newFakePostLogRepo()
	verifier := NewVerificationService(posts, igProject(), events, logs, nil)
	return &webhookFixture{
		service:  NewWebhookService(events, posts, logs, verifier),
		posts:    posts,
		events:   events,
		logs:     logs,
		verifier: verifier,
	}
}

func TestHandlePlatformEventStoryVerifiesTaggedPost(t *testing.T) {
	f := newWebhookFixture()
	publishedAt := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	post := f.posts.add(postedStory(publishedAt, strPtr("#sl_7f3a"), "new drop #sl_7f3a"))

	payload := &transfer.PlatformWebhookPayload{
		Type: "story",
		Story: &transfer.StoryEventPayload{
			InstagramUsername: "lagosta.studio",
			StoryID:           "story-1",
			Caption:           "new drop #sl_7f3a",
			Permalink:         "https://instagram.com/stories/story-1",
			MediaType:         "image",
			MediaURL:          "https://cdn.example.com/story-1.jpg",
			TakenAt:           publishedAt.Add(2 * time.Minute).Format(time.RFC3339),
		},
	}
	require.NoError(t, payload.Validate())
	require.NoError(t, f.service.HandlePlatformEvent(context.Background(), payload))

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	require.NotNil(t, stored.VerifiedPermalink)
	assert.Equal(t, "https://instagram.com/stories/story-1", *stored.VerifiedPermalink)

	// The event itself is recorded for later reconciliation sweeps.
	events, _ := f.events.ListByUsernameWindow(context.Background(), "lagosta.studio",
		publishedAt, publishedAt.Add(time.Hour))
	assert.Len(t, events, 1)
}

func TestHandlePlatformEventFeedConfirmsReminderPost(t *testing.T) {
	f := newWebhookFixture()
	scheduled := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	post := f.posts.add(&models.Post{
		ProjectID:         1,
		PostType:          models.PostTypeFeed,
		PublishType:       models.PublishTypeReminder,
		Status:            models.PostStatusScheduled,
		Caption:           "manual launch #sl_a1b2",
		VerificationTag:   strPtr("#sl_a1b2"),
		ScheduledDatetime: timePtr(scheduled),
	})

	payload := &transfer.PlatformWebhookPayload{
		Type: "feed",
		Feed: &transfer.FeedEventPayload{
			InstagramUsername: "lagosta.studio",
			MediaID:           "media-77",
			Caption:           "manual launch #sl_a1b2",
			Permalink:         "https://instagram.com/p/media-77",
			MediaType:         "image",
			TakenAt:           scheduled.Add(3 * time.Minute).Format(time.RFC3339),
		},
	}
	require.NoError(t, f.service.HandlePlatformEvent(context.Background(), payload))

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusPosted, stored.Status)
	require.NotNil(t, stored.PublishedURL)
	assert.Equal(t, "https://instagram.com/p/media-77", *stored.PublishedURL)
	require.NotNil(t, stored.PublishedAt)

	entries, _ := f.logs.ListByPostID(context.Background(), post.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.LogEventPublished, entries[0].Event)
}

func TestHandlePlatformEventFeedWithoutTagIsRecordedOnly(t *testing.T) {
	f := newWebhookFixture()
	scheduled := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	post := f.posts.add(&models.Post{
		ProjectID:   1,
		PostType:    models.PostTypeFeed,
		PublishType: models.PublishTypeReminder,
		Status:      models.PostStatusScheduled,
	})

	payload := &transfer.PlatformWebhookPayload{
		Type: "feed",
		Feed: &transfer.FeedEventPayload{
			InstagramUsername: "lagosta.studio",
			MediaID:           "media-88",
			Caption:           "no tag here",
			Permalink:         "https://instagram.com/p/media-88",
			MediaType:         "image",
			TakenAt:           scheduled.Format(time.RFC3339),
		},
	}
	require.NoError(t, f.service.HandlePlatformEvent(context.Background(), payload))

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusScheduled, stored.Status)
}

func TestTestWebhookReportsRawResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"ok":false}`))
	}))
	defer server.Close()

	f := newWebhookFixture()
	result, err := f.service.TestWebhook(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, result.StatusCode)
	assert.Equal(t, `{"ok":false}`, result.Body)
	assert.GreaterOrEqual(t, result.DurationMS, int64(0))
}

func TestTestWebhookSurfacesConnectionFailure(t *testing.T) {
	f := newWebhookFixture()
	_, err := f.service.TestWebhook(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, err)
}
