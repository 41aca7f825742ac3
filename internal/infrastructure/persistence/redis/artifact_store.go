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

// ArtifactStore 提交失败后暂存生成产物
type ArtifactStore struct {
	client *Client
	ttl    time.Duration
}

// NewArtifactStore 创建产物暂存
func NewArtifactStore(client *Client, ttl time.Duration) *ArtifactStore {
	return &ArtifactStore{client: client, ttl: ttl}
}

func artifactKey(taskID string) string {
	return "artifacts:" + taskID
}

// Put 写入产物
func (s *ArtifactStore) Put(ctx context.Context, a *entity.GeneratedArtifacts) error {
	ctx, span := tracer.Start(ctx, "redis.ArtifactStore.Put",
		trace.WithAttributes(
			attribute.String("task.id", a.TaskID),
			attribute.Int("artifacts.images", len(a.Images)),
			attribute.Int("artifacts.chapters", len(a.Chapters)),
		))
	defer span.End()

	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}
	if err := s.client.rdb.Set(ctx, artifactKey(a.TaskID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to store artifacts: %w", err)
	}
	return nil
}

// Get 读取产物，不存在或已过期返回 nil, nil
func (s *ArtifactStore) Get(ctx context.Context, taskID string) (*entity.GeneratedArtifacts, error) {
	ctx, span := tracer.Start(ctx, "redis.ArtifactStore.Get", trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	data, err := s.client.rdb.Get(ctx, artifactKey(taskID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get artifacts: %w", err)
	}
	var a entity.GeneratedArtifacts
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifacts: %w", err)
	}
	return &a, nil
}

// Delete 删除产物
func (s *ArtifactStore) Delete(ctx context.Context, taskID string) error {
	ctx, span := tracer.Start(ctx, "redis.ArtifactStore.Delete", trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	if err := s.client.rdb.Del(ctx, artifactKey(taskID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete artifacts: %w", err)
	}
	return nil
}
