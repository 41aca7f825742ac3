package workflow

import (
	"context"
	"sync"

	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/pkg/logger"
)

// Dispatcher 将已提交的任务交给执行方
type Dispatcher interface {
	Dispatch(ctx context.Context, cred entity.Credential, task *entity.GenerationTask) error
}

// InlineDispatcher 在当前进程的后台 goroutine 中执行任务
type InlineDispatcher struct {
	workflow *BookWorkflow
	wg       sync.WaitGroup
}

// NewInlineDispatcher 创建进程内派发器
func NewInlineDispatcher(workflow *BookWorkflow) *InlineDispatcher {
	return &InlineDispatcher{workflow: workflow}
}

// Dispatch 启动执行；执行使用脱离请求的 context，客户端断开不会中断付费生成
func (d *InlineDispatcher) Dispatch(ctx context.Context, cred entity.Credential, task *entity.GenerationTask) error {
	runCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.workflow.Run(runCtx, cred, task); err != nil {
			logger.Debug(runCtx, "inline generation finished with error", "task_id", task.ID, "error", err.Error())
		}
	}()
	return nil
}

// Wait 等待所有进程内任务结束
func (d *InlineDispatcher) Wait() {
	d.wg.Wait()
}

// Execute 按任务 ID 执行一次生成，供队列消费者调用。
// 生成或提交失败已记录在任务上，不返回给调用方，避免重复付费生成；
// 只有任务读取失败才返回错误以便重投。
func (w *BookWorkflow) Execute(ctx context.Context, cred entity.Credential, taskID string) error {
	task, err := w.Get(ctx, cred, taskID)
	if err != nil {
		return err
	}
	if task.Status != entity.TaskStatusPending {
		logger.Info(ctx, "skip generation task not pending", "task_id", task.ID, "status", task.Status)
		return nil
	}
	if err := w.Run(ctx, cred, task); err != nil {
		logger.Debug(ctx, "generation finished with error", "task_id", task.ID, "error", err.Error())
	}
	return nil
}
