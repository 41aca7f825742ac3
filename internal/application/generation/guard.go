package generation

import (
	"context"
	"fmt"
	"sync"
)

// ReentryPolicy 同一调用方对同一本书重复发起生成时的处理方式
type ReentryPolicy string

const (
	// PolicyReject 已有运行中的生成时拒绝新请求
	PolicyReject ReentryPolicy = "reject"
	// PolicyAllow 允许并发运行，进度与结果互不影响
	PolicyAllow ReentryPolicy = "allow"
)

// ParseReentryPolicy 解析配置值，空值视为 reject
func ParseReentryPolicy(s string) (ReentryPolicy, error) {
	switch ReentryPolicy(s) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyAllow:
		return PolicyAllow, nil
	default:
		return "", fmt.Errorf("unknown reentry policy %q", s)
	}
}

// RunKey 互斥键：调用方 + 目标书籍，新书共用 draft 键
func RunKey(owner, existingBookID string) string {
	book := existingBookID
	if book == "" {
		book = "draft"
	}
	return "run:" + owner + ":" + book
}

// SaveKey 单个任务重试提交的互斥键，与重入策略无关
func SaveKey(taskID string) string {
	return "save:" + taskID
}

// MemoryRunGuard 进程内互斥，CLI 与测试使用
type MemoryRunGuard struct {
	mu      sync.Mutex
	holders map[string]string
}

// NewMemoryRunGuard 创建进程内互斥
func NewMemoryRunGuard() *MemoryRunGuard {
	return &MemoryRunGuard{holders: make(map[string]string)}
}

// Acquire 尝试占用，同一 holder 重复占用视为成功
func (g *MemoryRunGuard) Acquire(_ context.Context, key, holder string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.holders[key]; ok {
		return cur == holder, nil
	}
	g.holders[key] = holder
	return true, nil
}

// Release 释放
func (g *MemoryRunGuard) Release(_ context.Context, key, holder string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holders[key] == holder {
		delete(g.holders, key)
	}
	return nil
}
