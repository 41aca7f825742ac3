package workflow

import (
	"context"
	"sync"

	"book-workshop-api/internal/domain/entity"
)

// MemoryTaskStore 进程内任务存储，CLI 与 inline 测试使用
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]entity.GenerationTask
}

// NewMemoryTaskStore 创建进程内任务存储
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]entity.GenerationTask)}
}

func (s *MemoryTaskStore) Save(_ context.Context, task *entity.GenerationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *task
	cp.Draft = task.Draft.Snapshot()
	s.tasks[task.ID] = cp
	return nil
}

func (s *MemoryTaskStore) Get(_ context.Context, id string) (*entity.GenerationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	t.Draft = t.Draft.Snapshot()
	return &t, nil
}

func (s *MemoryTaskStore) UpdateProgress(_ context.Context, id string, p entity.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Progress = p
		s.tasks[id] = t
	}
	return nil
}

// MemoryArtifactStore 进程内产物暂存
type MemoryArtifactStore struct {
	mu    sync.Mutex
	items map[string]*entity.GeneratedArtifacts
}

// NewMemoryArtifactStore 创建进程内产物暂存
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{items: make(map[string]*entity.GeneratedArtifacts)}
}

func (s *MemoryArtifactStore) Put(_ context.Context, a *entity.GeneratedArtifacts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[a.TaskID] = a
	return nil
}

func (s *MemoryArtifactStore) Get(_ context.Context, taskID string) (*entity.GeneratedArtifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[taskID], nil
}

func (s *MemoryArtifactStore) Delete(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, taskID)
	return nil
}
