package generation

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/pkg/logger"
)

// RunState 编排器状态
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ImageGenerator 插图子任务
type ImageGenerator interface {
	Generate(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, onProgress func(completed int)) ([]string, error)
}

// ChapterGenerator 文本子任务
type ChapterGenerator interface {
	Generate(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, onStatus func(entity.TextStatus)) ([]entity.Chapter, error)
}

// Outcome 两个子任务都成功后的结果
type Outcome struct {
	Images   []string
	Chapters []entity.Chapter
	// ImagesReused 插图来自草稿中已生成的列表
	ImagesReused bool
}

// Orchestrator 并发运行插图与文本生成，等待两者都结束后汇总
type Orchestrator struct {
	images ImageGenerator
	text   ChapterGenerator

	mu    sync.Mutex
	state RunState
}

// NewOrchestrator 创建编排器
func NewOrchestrator(images ImageGenerator, text ChapterGenerator) *Orchestrator {
	return &Orchestrator{images: images, text: text}
}

// State 当前状态
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run 执行一次生成。
// 任一子任务失败不会取消另一个，两者都结束后返回最先失败的错误，另一方结果丢弃。
func (o *Orchestrator) Run(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, progress *ProgressTracker) (*Outcome, error) {
	snap := draft.Snapshot()

	o.mu.Lock()
	if o.state == StateRunning {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	o.state = StateRunning
	o.mu.Unlock()

	if progress == nil {
		progress = NewProgressTracker(snap.Illustrations.Count)
	}

	var (
		images   []string
		chapters []entity.Chapter
		reused   = len(snap.GeneratedImages) > 0
	)

	var g errgroup.Group
	g.Go(func() error {
		if reused {
			images = snap.GeneratedImages
			progress.MarkImagesReused(len(images))
			return nil
		}
		var err error
		images, err = o.images.Generate(ctx, cred, &snap, progress.SetImagesCompleted)
		return err
	})
	g.Go(func() error {
		var err error
		chapters, err = o.text.Generate(ctx, cred, &snap, progress.SetText)
		return err
	})

	// errgroup 记录的是第一个返回的错误，即按结束先后取首个失败
	if err := g.Wait(); err != nil {
		o.finish(StateFailed)
		logger.Warn(ctx, "generation run failed", "error", err.Error())
		return nil, err
	}

	o.finish(StateSucceeded)
	return &Outcome{Images: images, Chapters: chapters, ImagesReused: reused}, nil
}

func (o *Orchestrator) finish(s RunState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
