package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer wraps the asynq client behind the service layer's
// TaskEnqueuer port.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueuePublish(postID int64, delay time.Duration) error {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, payload)
	_, err = e.client.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	slog.Info("publish task scheduled", "post_id", postID, "delay", delay.String())
	return nil
}

func (e *Enqueuer) EnqueueRetry(retryID int64, delay time.Duration) error {
	payload, err := json.Marshal(RetryPostPayload{RetryID: retryID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeRetryPost, payload)
	_, err = e.client.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	slog.Info("retry task scheduled", "retry_id", retryID, "delay", delay.String())
	return nil
}
