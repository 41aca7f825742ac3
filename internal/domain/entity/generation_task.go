package entity

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus 生成任务状态
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusRunning    TaskStatus = "running"
	TaskStatusCommitting TaskStatus = "committing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	// TaskStatusSaveFailed 生成成功但提交失败，生成结果仍保留可重试提交
	TaskStatusSaveFailed TaskStatus = "save_failed"
)

// FailureStage 失败发生的阶段
type FailureStage string

const (
	StageValidation FailureStage = "validation"
	StageImages     FailureStage = "images"
	StageText       FailureStage = "text"
	StageCommit     FailureStage = "commit"
	StageDispatch   FailureStage = "dispatch"
)

// TextState 文本生成的粗粒度状态
type TextState string

const (
	TextIdle    TextState = "idle"
	TextPending TextState = "pending"
	TextDone    TextState = "done"
	TextError   TextState = "error"
)

// TextStatus 文本生成进度
type TextStatus struct {
	State    TextState `json:"state"`
	Chapters int       `json:"chapters,omitempty"`
}

// Progress 生成进度，由插图与文本两个子任务并发更新
type Progress struct {
	ImagesCompleted int        `json:"images_completed"`
	ImagesTotal     int        `json:"images_total"`
	Text            TextStatus `json:"text"`
}

// GenerationTask 一次协同生成的运行记录
type GenerationTask struct {
	ID             string       `json:"id"`
	Owner          string       `json:"owner"`
	ExistingBookID string       `json:"existing_book_id,omitempty"`
	Draft          BookDraft    `json:"draft"`
	Progress       Progress     `json:"progress"`
	Status         TaskStatus   `json:"status"`
	FailedStage    FailureStage `json:"failed_stage,omitempty"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	FailedIndex    *int         `json:"failed_index,omitempty"`
	BookID         string       `json:"book_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	StartedAt      *time.Time   `json:"started_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

// NewGenerationTask 创建新任务，草稿以快照形式保存
func NewGenerationTask(owner string, draft *BookDraft, existingBookID string) *GenerationTask {
	now := time.Now()
	return &GenerationTask{
		ID:             uuid.NewString(),
		Owner:          owner,
		ExistingBookID: existingBookID,
		Draft:          draft.Snapshot(),
		Progress: Progress{
			ImagesTotal: draft.Illustrations.Count,
			Text:        TextStatus{State: TextIdle},
		},
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start 开始执行
func (t *GenerationTask) Start() {
	now := time.Now()
	t.Status = TaskStatusRunning
	t.StartedAt = &now
	t.UpdatedAt = now
	t.FailedStage = ""
	t.ErrorMessage = ""
	t.FailedIndex = nil
}

// MarkCommitting 生成完成，进入提交阶段
func (t *GenerationTask) MarkCommitting() {
	t.Status = TaskStatusCommitting
	t.UpdatedAt = time.Now()
}

// Complete 提交成功
func (t *GenerationTask) Complete(bookID string) {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.BookID = bookID
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.FailedStage = ""
	t.ErrorMessage = ""
}

// Fail 标记失败；提交阶段失败进入 save_failed
func (t *GenerationTask) Fail(stage FailureStage, msg string, index *int) {
	now := time.Now()
	t.Status = TaskStatusFailed
	if stage == StageCommit {
		t.Status = TaskStatusSaveFailed
	}
	t.FailedStage = stage
	t.ErrorMessage = msg
	t.FailedIndex = index
	t.CompletedAt = &now
	t.UpdatedAt = now
}

// Terminal 任务是否已结束（save_failed 仍可重试提交）
func (t *GenerationTask) Terminal() bool {
	switch t.Status {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusSaveFailed:
		return true
	default:
		return false
	}
}

// Duration 运行耗时
func (t *GenerationTask) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}
