// Package workflow 串联校验、生成与提交
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/domain/repository"
	"book-workshop-api/pkg/logger"
	"book-workshop-api/pkg/metrics"
	"book-workshop-api/pkg/tracer"
)

var (
	// ErrTaskNotFound 任务不存在或不属于调用方
	ErrTaskNotFound = errors.New("generation task not found")
	// ErrNothingToSave 任务不处于 save_failed 或生成产物已过期
	ErrNothingToSave = errors.New("no generated artifacts to save")
)

// Committer 提交生成结果
type Committer interface {
	Save(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, images []string, chapters []entity.Chapter, existingBookID string) (string, error)
}

// BookWorkflow 一本书从草稿到提交的完整流程
type BookWorkflow struct {
	images    generation.ImageGenerator
	text      generation.ChapterGenerator
	committer Committer
	tasks     repository.TaskRepository
	guard     repository.RunGuard
	artifacts repository.ArtifactStore
	history   repository.GenerationRecordRepository
	policy    generation.ReentryPolicy
}

// NewBookWorkflow 创建流程；history 可为 nil
func NewBookWorkflow(
	images generation.ImageGenerator,
	text generation.ChapterGenerator,
	committer Committer,
	tasks repository.TaskRepository,
	guard repository.RunGuard,
	artifacts repository.ArtifactStore,
	history repository.GenerationRecordRepository,
	policy generation.ReentryPolicy,
) *BookWorkflow {
	return &BookWorkflow{
		images:    images,
		text:      text,
		committer: committer,
		tasks:     tasks,
		guard:     guard,
		artifacts: artifacts,
		history:   history,
		policy:    policy,
	}
}

// Submit 校验草稿并创建待执行任务。
// reject 策略下此时即占用互斥键，重复提交同步返回 ErrRunInProgress。
func (w *BookWorkflow) Submit(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, existingBookID string) (*entity.GenerationTask, error) {
	if err := generation.ValidateDraft(draft); err != nil {
		metrics.GenerationRunsTotal.WithLabelValues("rejected", string(entity.StageValidation)).Inc()
		return nil, err
	}

	task := entity.NewGenerationTask(cred.Subject(), draft, existingBookID)
	if err := w.acquire(ctx, task); err != nil {
		return nil, err
	}
	if err := w.tasks.Save(ctx, task); err != nil {
		w.release(ctx, task)
		return nil, fmt.Errorf("save task: %w", err)
	}

	logger.Info(ctx, "generation task submitted",
		"task_id", task.ID,
		"owner", task.Owner,
		"existing_book_id", existingBookID,
		"illustrations", draft.Illustrations.Count,
		"reuse_images", len(draft.GeneratedImages) > 0,
	)
	return task, nil
}

// Discard 任务未能派发时标记失败并释放互斥键
func (w *BookWorkflow) Discard(ctx context.Context, task *entity.GenerationTask, cause error) {
	task.Fail(entity.StageDispatch, cause.Error(), nil)
	w.saveTask(ctx, task)
	w.release(ctx, task)
}

// Run 执行任务：并发生成，两者都成功后提交。
// 返回失败阶段的原始错误，同时记录在任务上。
func (w *BookWorkflow) Run(ctx context.Context, cred entity.Credential, task *entity.GenerationTask) error {
	ctx = logger.WithContext(ctx, logger.TaskIDKey, task.ID)
	ctx = logger.WithContext(ctx, logger.OwnerKey, task.Owner)
	ctx, span := tracer.Start(ctx, "workflow.Run")
	defer span.End()

	if err := w.acquire(ctx, task); err != nil {
		tracer.Fail(span, err)
		return err
	}
	defer w.release(ctx, task)

	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	task.Start()
	w.saveTask(ctx, task)

	tracker := generation.NewProgressTracker(task.Draft.Illustrations.Count)
	tracker.Subscribe(func(p entity.Progress) {
		if err := w.tasks.UpdateProgress(ctx, task.ID, p); err != nil {
			logger.Warn(ctx, "failed to persist progress", "error", err.Error())
		}
		w.refresh(ctx, task)
	})

	orch := generation.NewOrchestrator(w.images, w.text)
	out, err := orch.Run(ctx, cred, &task.Draft, tracker)
	task.Progress = tracker.Snapshot()
	if err != nil {
		tracer.Fail(span, err)
		stage, index := failureOf(err)
		task.Fail(stage, err.Error(), index)
		w.finish(ctx, task, nil)
		return err
	}

	if out.ImagesReused {
		metrics.IllustrationsReused.Add(float64(len(out.Images)))
	} else {
		metrics.IllustrationsGenerated.Add(float64(len(out.Images)))
	}

	w.refresh(ctx, task)
	if err := w.commit(ctx, cred, task, out.Images, out.Chapters); err != nil {
		tracer.Fail(span, err)
		return err
	}
	w.finish(ctx, task, out)
	return nil
}

// RetrySave 仅重试提交，使用暂存的生成产物，不重新生成。
// 同一任务同时只有一次重试能进入提交，其余返回 ErrRunInProgress。
func (w *BookWorkflow) RetrySave(ctx context.Context, cred entity.Credential, taskID string) (*entity.GenerationTask, error) {
	task, err := w.Get(ctx, cred, taskID)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithContext(ctx, logger.TaskIDKey, task.ID)
	if task.Status != entity.TaskStatusSaveFailed {
		return nil, ErrNothingToSave
	}
	art, err := w.artifacts.Get(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("load artifacts: %w", err)
	}
	if art == nil {
		return nil, ErrNothingToSave
	}

	// 每次调用独立的 holder，同一任务的并发重试不会重复进入
	saveKey, holder := generation.SaveKey(task.ID), uuid.NewString()
	ok, err := w.guard.Acquire(ctx, saveKey, holder)
	if err != nil {
		return nil, fmt.Errorf("acquire save guard: %w", err)
	}
	if !ok {
		logger.Warn(ctx, "book commit retry already in progress")
		return nil, generation.ErrRunInProgress
	}
	defer func() {
		if err := w.guard.Release(ctx, saveKey, holder); err != nil {
			logger.Warn(ctx, "failed to release save guard", "error", err.Error())
		}
	}()

	// 占用后重新读取，前一次重试可能已经提交成功
	task, err = w.Get(ctx, cred, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != entity.TaskStatusSaveFailed {
		return nil, ErrNothingToSave
	}

	if err := w.acquire(ctx, task); err != nil {
		return nil, err
	}
	defer w.release(ctx, task)

	logger.Info(ctx, "retrying book commit", "images", len(art.Images), "chapters", len(art.Chapters))
	if err := w.commit(ctx, cred, task, art.Images, art.Chapters); err != nil {
		return task, err
	}
	w.finish(ctx, task, &generation.Outcome{Images: art.Images, Chapters: art.Chapters})
	if err := w.artifacts.Delete(ctx, task.ID); err != nil {
		logger.Warn(ctx, "failed to delete artifacts", "error", err.Error())
	}
	return task, nil
}

// Get 读取调用方自己的任务
func (w *BookWorkflow) Get(ctx context.Context, cred entity.Credential, taskID string) (*entity.GenerationTask, error) {
	task, err := w.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil || task.Owner != cred.Subject() {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// History 调用方的生成历史；未启用历史存储时返回空页
func (w *BookWorkflow) History(ctx context.Context, cred entity.Credential, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationRecord], error) {
	if w.history == nil {
		return repository.NewPagedResult([]*entity.GenerationRecord{}, 0, pagination), nil
	}
	return w.history.ListByOwner(ctx, cred.Subject(), pagination)
}

// commit 提交，失败时暂存产物并标记 save_failed
func (w *BookWorkflow) commit(ctx context.Context, cred entity.Credential, task *entity.GenerationTask, images []string, chapters []entity.Chapter) error {
	task.MarkCommitting()
	w.saveTask(ctx, task)

	bookID, err := w.committer.Save(ctx, cred, &task.Draft, images, chapters, task.ExistingBookID)
	if err != nil {
		if perr := w.artifacts.Put(ctx, &entity.GeneratedArtifacts{
			TaskID:   task.ID,
			Images:   images,
			Chapters: chapters,
			StoredAt: time.Now(),
		}); perr != nil {
			logger.Error(ctx, "failed to keep generated artifacts", perr)
		}
		task.Fail(entity.StageCommit, err.Error(), nil)
		w.finish(ctx, task, &generation.Outcome{Images: images, Chapters: chapters})
		return err
	}

	task.Complete(bookID)
	return nil
}

// finish 保存终态任务，记录指标与历史
func (w *BookWorkflow) finish(ctx context.Context, task *entity.GenerationTask, out *generation.Outcome) {
	w.saveTask(ctx, task)

	stage := string(task.FailedStage)
	metrics.GenerationRunsTotal.WithLabelValues(string(task.Status), stage).Inc()
	if d := task.Duration(); d > 0 {
		metrics.GenerationDuration.Observe(d.Seconds())
	}

	if task.Status == entity.TaskStatusCompleted {
		logger.Info(ctx, "generation task completed", "book_id", task.BookID, "duration_ms", task.Duration().Milliseconds())
	} else {
		logger.Warn(ctx, "generation task failed", "status", task.Status, "stage", stage, "error", task.ErrorMessage)
	}

	if w.history == nil {
		return
	}
	rec := &entity.GenerationRecord{
		TaskID:         task.ID,
		Owner:          task.Owner,
		Title:          task.Draft.Title,
		Genres:         task.Draft.Genres,
		ExistingBookID: task.ExistingBookID,
		BookID:         task.BookID,
		Status:         task.Status,
		FailedStage:    task.FailedStage,
		ErrorMessage:   task.ErrorMessage,
		DurationMs:     task.Duration().Milliseconds(),
		CreatedAt:      time.Now(),
	}
	if out != nil {
		rec.ImageCount = len(out.Images)
		rec.ImagesReused = out.ImagesReused
		rec.ChapterCount = len(out.Chapters)
	}
	if err := w.history.Create(ctx, rec); err != nil {
		logger.Warn(ctx, "failed to record generation history", "error", err.Error())
	}
}

func (w *BookWorkflow) saveTask(ctx context.Context, task *entity.GenerationTask) {
	if err := w.tasks.Save(ctx, task); err != nil {
		logger.Warn(ctx, "failed to save task", "status", task.Status, "error", err.Error())
	}
}

func (w *BookWorkflow) acquire(ctx context.Context, task *entity.GenerationTask) error {
	if w.policy == generation.PolicyAllow {
		return nil
	}
	ok, err := w.guard.Acquire(ctx, generation.RunKey(task.Owner, task.ExistingBookID), task.ID)
	if err != nil {
		return fmt.Errorf("acquire run guard: %w", err)
	}
	if !ok {
		logger.Warn(ctx, "generation already in progress", "existing_book_id", task.ExistingBookID)
		return generation.ErrRunInProgress
	}
	return nil
}

// refresh 运行中续期互斥键，长批次不会因 TTL 到期被并发运行插入
func (w *BookWorkflow) refresh(ctx context.Context, task *entity.GenerationTask) {
	if w.policy == generation.PolicyAllow {
		return
	}
	ok, err := w.guard.Acquire(ctx, generation.RunKey(task.Owner, task.ExistingBookID), task.ID)
	if err != nil {
		logger.Warn(ctx, "failed to refresh run guard", "error", err.Error())
		return
	}
	if !ok {
		logger.Warn(ctx, "run guard lost to another run", "existing_book_id", task.ExistingBookID)
	}
}

func (w *BookWorkflow) release(ctx context.Context, task *entity.GenerationTask) {
	if w.policy == generation.PolicyAllow {
		return
	}
	if err := w.guard.Release(ctx, generation.RunKey(task.Owner, task.ExistingBookID), task.ID); err != nil {
		logger.Warn(ctx, "failed to release run guard", "error", err.Error())
	}
}

// failureOf 从生成错误中取出失败阶段与插图下标
func failureOf(err error) (entity.FailureStage, *int) {
	var genErr *generation.GenerationError
	if errors.As(err, &genErr) {
		if genErr.Source == generation.SourceImages {
			idx := genErr.Index
			return entity.StageImages, &idx
		}
		return entity.StageText, nil
	}
	return entity.StageText, nil
}
