package transfer

import (
	"errors"
	"fmt"
	"time"
)

// ReminderPayload is the outbound webhook body sent ahead of a
// manually-published post's scheduled time.
type ReminderPayload struct {
	Type    string          `json:"type"` // always "reminder"
	Post    ReminderPost    `json:"post"`
	Project ReminderProject `json:"project"`
}

type ReminderPost struct {
	ID           int64    `json:"id"`
	Content      string   `json:"content"`
	ScheduledFor string   `json:"scheduledFor"`
	Platform     string   `json:"platform"` // always "instagram"
	PostType     string   `json:"postType"`
	MediaURLs    []string `json:"mediaUrls"`
	ExtraInfo    string   `json:"extraInfo,omitempty"`
	FirstComment string   `json:"firstComment,omitempty"`
}

type ReminderProject struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	InstagramUsername string `json:"instagramUsername"`
}

// ZapierPostPayload is the single outbound call the legacy automation
// provider consumes. Only the HTTP status of the response matters.
type ZapierPostPayload struct {
	Type         string   `json:"type"` // publish, update
	PostID       int64    `json:"post_id"`
	PostType     string   `json:"post_type"`
	Caption      string   `json:"caption"`
	MediaURLs    []string `json:"media_urls"`
	AltText      string   `json:"alt_text,omitempty"`
	FirstComment string   `json:"first_comment,omitempty"`
	ScheduledFor string   `json:"scheduled_for,omitempty"`
	Recurring    any      `json:"recurring,omitempty"`
}

var allowedMediaTypes = map[string]struct{}{
	"image": {},
	"video": {},
}

// PlatformWebhookPayload is the inbound envelope from the platform feed.
// Type selects which of the nested payloads is present.
type PlatformWebhookPayload struct {
	Type         string               `json:"type"` // story, feed, weekly_report
	Story        *StoryEventPayload   `json:"story,omitempty"`
	Feed         *FeedEventPayload    `json:"feed,omitempty"`
	WeeklyReport *WeeklyReportPayload `json:"weekly_report,omitempty"`
}

type StoryEventPayload struct {
	InstagramUsername string `json:"instagram_username"`
	StoryID           string `json:"story_id"`
	Caption           string `json:"caption"`
	Permalink         string `json:"permalink"`
	MediaType         string `json:"media_type"`
	MediaURL          string `json:"media_url"`
	TakenAt           string `json:"taken_at"` // RFC 3339
}

type FeedEventPayload struct {
	InstagramUsername string `json:"instagram_username"`
	MediaID           string `json:"media_id"`
	Caption           string `json:"caption"`
	Permalink         string `json:"permalink"`
	MediaType         string `json:"media_type"`
	TakenAt           string `json:"taken_at"`
}

type WeeklyReportPayload struct {
	InstagramUsername string `json:"instagram_username"`
	WeekStart         string `json:"week_start"`
	Followers         int    `json:"followers"`
	PostsPublished    int    `json:"posts_published"`
}

func (p *PlatformWebhookPayload) Validate() error {
	switch p.Type {
	case "story":
		if p.Story == nil {
			return errors.New("missing story payload")
		}
		return p.Story.Validate()
	case "feed":
		if p.Feed == nil {
			return errors.New("missing feed payload")
		}
		return p.Feed.Validate()
	case "weekly_report":
		if p.WeeklyReport == nil {
			return errors.New("missing weekly_report payload")
		}
		if p.WeeklyReport.InstagramUsername == "" {
			return errors.New("instagram_username is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown webhook type %q", p.Type)
	}
}

func (p *StoryEventPayload) Validate() error {
	if p.InstagramUsername == "" {
		return errors.New("instagram_username is required")
	}
	if p.StoryID == "" {
		return errors.New("story_id is required")
	}
	if _, ok := allowedMediaTypes[p.MediaType]; !ok {
		return fmt.Errorf("media_type %q is not allowed", p.MediaType)
	}
	if _, err := time.Parse(time.RFC3339, p.TakenAt); err != nil {
		return fmt.Errorf("taken_at is not a valid timestamp: %w", err)
	}
	return nil
}

func (p *FeedEventPayload) Validate() error {
	if p.InstagramUsername == "" {
		return errors.New("instagram_username is required")
	}
	if p.MediaID == "" {
		return errors.New("media_id is required")
	}
	if _, ok := allowedMediaTypes[p.MediaType]; !ok {
		return fmt.Errorf("media_type %q is not allowed", p.MediaType)
	}
	if _, err := time.Parse(time.RFC3339, p.TakenAt); err != nil {
		return fmt.Errorf("taken_at is not a valid timestamp: %w", err)
	}
	return nil
}

// WebhookTestResult is what the operator dry-run endpoint returns. No
// post state is touched on this path.
type WebhookTestResult struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
	DurationMS int64  `json:"duration_ms"`
}
