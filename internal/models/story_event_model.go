package models

import "time"

// StoryEvent is a story or feed publication reported by the platform's
// inbound webhook feed. Events are the reconciler's candidate pool.
type StoryEvent struct {
	ID                int64     `db:"id" json:"id"`
	EventType         string    `db:"event_type" json:"event_type"` // story, feed
	InstagramUsername string    `db:"instagram_username" json:"instagram_username"`
	StoryID           string    `db:"story_id" json:"story_id"`
	Caption           string    `db:"caption" json:"caption"`
	Permalink         string    `db:"permalink" json:"permalink"`
	MediaType         string    `db:"media_type" json:"media_type"` // image, video
	MediaURL          string    `db:"media_url" json:"media_url"`
	TakenAt           time.Time `db:"taken_at" json:"taken_at"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

const (
	StoryEventTypeStory = "story"
	StoryEventTypeFeed  = "feed"
)
