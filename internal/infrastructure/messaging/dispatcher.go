package messaging

import (
	"context"

	"book-workshop-api/internal/domain/entity"
)

// StreamDispatcher 将生成任务投递到 Redis Stream，由 job-worker 执行
type StreamDispatcher struct {
	producer *Producer
}

// NewStreamDispatcher 创建 Stream 派发器
func NewStreamDispatcher(producer *Producer) *StreamDispatcher {
	return &StreamDispatcher{producer: producer}
}

// Dispatch 发布任务消息
func (d *StreamDispatcher) Dispatch(ctx context.Context, cred entity.Credential, task *entity.GenerationTask) error {
	_, err := d.producer.PublishBookGeneration(ctx, task.Owner, &BookGenerationMessage{
		TaskID: task.ID,
		Token:  cred.Token,
	})
	return err
}
