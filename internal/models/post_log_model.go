package models

import "time"

// PostLog is an append-only audit entry. Rows are never updated, a
// retention job prunes old ones.
type PostLog struct {
	ID        int64     `db:"id" json:"id"`
	PostID    int64     `db:"post_id" json:"post_id"`
	Event     string    `db:"event" json:"event"`
	Message   string    `db:"message" json:"message"`
	Metadata  string    `db:"metadata" json:"metadata"` // JSON blob
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	LogEventScheduled    = "scheduled"
	LogEventEdited       = "edited"
	LogEventSent         = "sent"
	LogEventPublished    = "published"
	LogEventFailed       = "failed"
	LogEventRetried      = "retried"
	LogEventReminderSent = "reminder_sent"
	LogEventVerified     = "verified"
	LogEventArchived     = "archived"
)
