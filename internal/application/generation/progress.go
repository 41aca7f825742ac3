package generation

import (
	"sync"

	"book-workshop-api/internal/domain/entity"
)

// ProgressListener 接收进度快照
type ProgressListener func(entity.Progress)

// ProgressTracker 两个子任务共享的进度记录。
// 更新在锁内完成，监听器在状态锁外按更新顺序收到快照，可在回调中调用 Snapshot。
type ProgressTracker struct {
	emitMu    sync.Mutex
	mu        sync.Mutex
	progress  entity.Progress
	listeners []ProgressListener
}

// NewProgressTracker 创建进度记录
func NewProgressTracker(imagesTotal int) *ProgressTracker {
	return &ProgressTracker{
		progress: entity.Progress{
			ImagesTotal: imagesTotal,
			Text:        entity.TextStatus{State: entity.TextIdle},
		},
	}
}

// Subscribe 注册监听器
func (t *ProgressTracker) Subscribe(l ProgressListener) {
	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()
}

// Snapshot 返回当前进度
func (t *ProgressTracker) Snapshot() entity.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// SetImagesCompleted 插图完成数更新
func (t *ProgressTracker) SetImagesCompleted(n int) {
	t.update(func(p *entity.Progress) {
		p.ImagesCompleted = n
	})
}

// MarkImagesReused 复用已有插图，直接视为全部完成
func (t *ProgressTracker) MarkImagesReused(n int) {
	t.update(func(p *entity.Progress) {
		p.ImagesTotal = n
		p.ImagesCompleted = n
	})
}

// SetText 文本状态更新
func (t *ProgressTracker) SetText(s entity.TextStatus) {
	t.update(func(p *entity.Progress) {
		p.Text = s
	})
}

func (t *ProgressTracker) update(fn func(*entity.Progress)) {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	fn(&t.progress)
	snap := t.progress
	listeners := make([]ProgressListener, len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}
