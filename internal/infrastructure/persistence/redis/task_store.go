package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"book-workshop-api/internal/domain/entity"
)

const (
	taskFieldData     = "data"
	taskFieldProgress = "progress"
)

// TaskStore 生成任务状态存储。
// 任务整体与进度分字段保存在同一个 hash 中，进度更新不会覆盖任务其余字段。
type TaskStore struct {
	client *Client
	ttl    time.Duration
}

// NewTaskStore 创建任务存储
func NewTaskStore(client *Client, ttl time.Duration) *TaskStore {
	return &TaskStore{client: client, ttl: ttl}
}

func taskKey(id string) string {
	return "task:" + id
}

// Save 保存任务
func (s *TaskStore) Save(ctx context.Context, task *entity.GenerationTask) error {
	ctx, span := tracer.Start(ctx, "redis.TaskStore.Save",
		trace.WithAttributes(attribute.String("task.id", task.ID), attribute.String("task.status", string(task.Status))))
	defer span.End()

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	progress, err := json.Marshal(task.Progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	key := taskKey(task.ID)
	_, err = s.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, taskFieldData, data, taskFieldProgress, progress)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

// Get 获取任务
func (s *TaskStore) Get(ctx context.Context, id string) (*entity.GenerationTask, error) {
	ctx, span := tracer.Start(ctx, "redis.TaskStore.Get", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	vals, err := s.client.rdb.HMGet(ctx, taskKey(id), taskFieldData, taskFieldProgress).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, nil
	}

	var task entity.GenerationTask
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if p, ok := vals[1].(string); ok {
		if err := json.Unmarshal([]byte(p), &task.Progress); err != nil {
			return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
		}
	}
	return &task, nil
}

// UpdateProgress 仅更新进度，任务不存在时忽略
func (s *TaskStore) UpdateProgress(ctx context.Context, id string, progress entity.Progress) error {
	ctx, span := tracer.Start(ctx, "redis.TaskStore.UpdateProgress", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	err = updateIfExists.Run(ctx, s.client.rdb, []string{taskKey(id)}, taskFieldProgress, data).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

var updateIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
end
return 0
`)
