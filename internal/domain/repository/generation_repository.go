package repository

import (
	"context"

	"book-workshop-api/internal/domain/entity"
)

// TaskRepository 生成任务状态存储
type TaskRepository interface {
	// Save 保存任务（创建或整体覆盖）
	Save(ctx context.Context, task *entity.GenerationTask) error

	// Get 获取任务，不存在时返回 nil, nil
	Get(ctx context.Context, id string) (*entity.GenerationTask, error)

	// UpdateProgress 仅更新进度字段
	UpdateProgress(ctx context.Context, id string, progress entity.Progress) error
}

// RunGuard 同一调用方对同一本书的运行互斥
type RunGuard interface {
	// Acquire 尝试占用 key，已被占用时返回 false
	Acquire(ctx context.Context, key, holder string) (bool, error)

	// Release 仅当 holder 仍持有 key 时释放
	Release(ctx context.Context, key, holder string) error
}

// ArtifactStore 提交失败后暂存生成产物
type ArtifactStore interface {
	Put(ctx context.Context, artifacts *entity.GeneratedArtifacts) error

	// Get 不存在时返回 nil, nil
	Get(ctx context.Context, taskID string) (*entity.GeneratedArtifacts, error)

	Delete(ctx context.Context, taskID string) error
}

// GenerationRecordRepository 生成历史仓储
type GenerationRecordRepository interface {
	// Create 写入一条历史记录
	Create(ctx context.Context, record *entity.GenerationRecord) error

	// ListByOwner 按调用方分页查询，按创建时间倒序
	ListByOwner(ctx context.Context, owner string, pagination Pagination) (*PagedResult[*entity.GenerationRecord], error)
}
