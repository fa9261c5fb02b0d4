package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	// The adapter error surfaces here; this invocation owns handing it
	// to the retry manager, not the publish router.
	if err := q.publish.Publish(ctx, payload.PostID); err != nil {
		slog.Info("publish failed, enqueueing retry", "post_id", payload.PostID, "error", err.Error())
		if _, retryErr := q.retry.Enqueue(ctx, payload.PostID, err); retryErr != nil {
			return retryErr
		}
	}
	return nil
}

func (q *Queue) HandleRetryPostTask(ctx context.Context, task *asynq.Task) error {
	var payload RetryPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.retry.Attempt(ctx, payload.RetryID)
}
