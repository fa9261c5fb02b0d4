package models

import "time"

type RecurringConfig struct {
	Frequency  string     `json:"frequency"` // daily, weekly, monthly
	DaysOfWeek []int      `json:"days_of_week,omitempty"`
	TimeOfDay  string     `json:"time_of_day"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

type Post struct {
	ID        int64  `db:"id" json:"id"`
	ProjectID int64  `db:"project_id" json:"project_id"`
	UserID    int64  `db:"user_id" json:"user_id"`
	PostType  string `db:"post_type" json:"post_type"` // feed, story, reel

	Caption      string   `db:"caption" json:"caption"`
	MediaURLs    []string `db:"media_urls" json:"media_urls"`
	AltText      *string  `db:"alt_text" json:"alt_text,omitempty"`
	FirstComment *string  `db:"first_comment" json:"first_comment,omitempty"`

	ScheduleType      string           `db:"schedule_type" json:"schedule_type"` // immediate, scheduled, recurring
	ScheduledDatetime *time.Time       `db:"scheduled_datetime" json:"scheduled_datetime,omitempty"`
	Recurring         *RecurringConfig `db:"recurring_config" json:"recurring_config,omitempty"`

	PublishType    string     `db:"publish_type" json:"publish_type"` // auto, reminder
	ReminderSentAt *time.Time `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`

	Status string `db:"status" json:"status"` // draft, scheduled, posting, posted, failed

	ExternalPostID *string    `db:"external_post_id" json:"external_post_id,omitempty"`
	ProviderStatus *string    `db:"provider_status" json:"provider_status,omitempty"`
	PublishedURL   *string    `db:"published_url" json:"published_url,omitempty"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at,omitempty"`

	VerificationTag      *string `db:"verification_tag" json:"verification_tag,omitempty"`
	VerifiedStoryID      *string `db:"verified_story_id" json:"verified_story_id,omitempty"`
	VerifiedPermalink    *string `db:"verified_permalink" json:"verified_permalink,omitempty"`
	VerifiedByFallback   bool    `db:"verified_by_fallback" json:"verified_by_fallback"`
	VerificationError    *string `db:"verification_error" json:"verification_error,omitempty"`
	VerificationAttempts int     `db:"verification_attempts" json:"verification_attempts"`
	ArchiveURL           *string `db:"archive_url" json:"archive_url,omitempty"`

	Likes              int        `db:"likes" json:"likes"`
	Comments           int        `db:"comments" json:"comments"`
	Shares             int        `db:"shares" json:"shares"`
	Reach              int        `db:"reach" json:"reach"`
	Impressions        int        `db:"impressions" json:"impressions"`
	Engagement         float64    `db:"engagement" json:"engagement"`
	AnalyticsFetchedAt *time.Time `db:"analytics_fetched_at" json:"analytics_fetched_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPosting   = "posting"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
)

const (
	PostTypeFeed  = "feed"
	PostTypeStory = "story"
	PostTypeReel  = "reel"
)

const (
	ScheduleTypeImmediate = "immediate"
	ScheduleTypeScheduled = "scheduled"
	ScheduleTypeRecurring = "recurring"
)

const (
	PublishTypeAuto     = "auto"
	PublishTypeReminder = "reminder"
)

// RecurringActive reports whether a recurring post is still active at now.
// A post with no end date never expires.
func (p *Post) RecurringActive(now time.Time) bool {
	if p.ScheduleType != ScheduleTypeRecurring || p.Recurring == nil {
		return false
	}
	if p.Recurring.EndDate == nil {
		return true
	}
	return !p.Recurring.EndDate.Before(now)
}

type AnalyticsSnapshot struct {
	Likes       int     `json:"likes"`
	Comments    int     `json:"comments"`
	Shares      int     `json:"shares"`
	Reach       int     `json:"reach"`
	Impressions int     `json:"impressions"`
	Engagement  float64 `json:"engagement"`
}
