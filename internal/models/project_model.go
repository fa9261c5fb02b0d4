package models

import "time"

type Project struct {
	ID                 int64      `db:"id" json:"id"`
	UserID             int64      `db:"user_id" json:"user_id"`
	Name               string     `db:"name" json:"name"`
	PostingProvider    string     `db:"posting_provider" json:"posting_provider"` // zapier, later_api
	WebhookURL         *string    `db:"webhook_url" json:"webhook_url,omitempty"`
	WebhookReminderURL *string    `db:"webhook_reminder_url" json:"webhook_reminder_url,omitempty"`
	LaterAccountID     *string    `db:"later_account_id" json:"later_account_id,omitempty"`
	LaterProfileID     *string    `db:"later_profile_id" json:"later_profile_id,omitempty"`
	LaterAccessToken   *string    `db:"later_access_token" json:"-"` // AES-GCM encrypted
	InstagramUsername  *string    `db:"instagram_username" json:"instagram_username,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	ProviderZapier   = "zapier"
	ProviderLaterAPI = "later_api"
)
