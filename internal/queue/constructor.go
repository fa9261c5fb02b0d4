package queue

import (
	"github.com/cirotrigo/studio-lagosta/internal/service"
)

type Queue struct {
	publish service.PublishService
	retry   service.RetryService
}

func NewQueue(publish service.PublishService, retry service.RetryService) *Queue {
	return &Queue{
		publish: publish,
		retry:   retry,
	}
}

const (
	TaskTypePublishPost = "publish:post"
	TaskTypeRetryPost   = "publish:retry"
)

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}

type RetryPostPayload struct {
	RetryID int64 `json:"retry_id"`
}
