package models

import "time"

type PostRetry struct {
	ID            int64     `db:"id" json:"id"`
	PostID        int64     `db:"post_id" json:"post_id"`
	Status        string    `db:"status" json:"status"` // pending, success, failed
	AttemptCount  int       `db:"attempt_count" json:"attempt_count"`
	NextAttemptAt time.Time `db:"next_attempt_at" json:"next_attempt_at"`
	LastError     string    `db:"last_error" json:"last_error"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

const (
	RetryStatusPending = "pending"
	RetryStatusSuccess = "success"
	RetryStatusFailed  = "failed"
)
