package dto

import (
	"time"

	"book-workshop-api/internal/domain/entity"
)

// SubmitGenerationRequest 提交生成请求
type SubmitGenerationRequest struct {
	Draft *entity.BookDraft `json:"draft"`
	// ExistingBookID 非空时更新该书，否则新建
	ExistingBookID string `json:"existing_book_id,omitempty"`
}

// ProgressResponse 生成进度
type ProgressResponse struct {
	ImagesCompleted int    `json:"images_completed"`
	ImagesTotal     int    `json:"images_total"`
	TextState       string `json:"text_state"`
	Chapters        int    `json:"chapters,omitempty"`
}

// TaskResponse 生成任务响应
type TaskResponse struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Status         string           `json:"status"`
	ExistingBookID string           `json:"existing_book_id,omitempty"`
	BookID         string           `json:"book_id,omitempty"`
	Progress       ProgressResponse `json:"progress"`
	FailedStage    string           `json:"failed_stage,omitempty"`
	FailedIndex    *int             `json:"failed_index,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// ToTaskResponse 将任务转换为响应 DTO
func ToTaskResponse(t *entity.GenerationTask) *TaskResponse {
	if t == nil {
		return nil
	}
	return &TaskResponse{
		ID:             t.ID,
		Title:          t.Draft.Title,
		Status:         string(t.Status),
		ExistingBookID: t.ExistingBookID,
		BookID:         t.BookID,
		Progress: ProgressResponse{
			ImagesCompleted: t.Progress.ImagesCompleted,
			ImagesTotal:     t.Progress.ImagesTotal,
			TextState:       string(t.Progress.Text.State),
			Chapters:        t.Progress.Text.Chapters,
		},
		FailedStage:  string(t.FailedStage),
		FailedIndex:  t.FailedIndex,
		ErrorMessage: t.ErrorMessage,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	}
}

// GenerationRecordResponse 生成历史条目
type GenerationRecordResponse struct {
	TaskID       string    `json:"task_id"`
	Title        string    `json:"title"`
	Genres       []string  `json:"genres"`
	BookID       string    `json:"book_id,omitempty"`
	Status       string    `json:"status"`
	FailedStage  string    `json:"failed_stage,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ImageCount   int       `json:"image_count"`
	ImagesReused bool      `json:"images_reused"`
	ChapterCount int       `json:"chapter_count"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// GenerationHistoryResponse 生成历史列表
type GenerationHistoryResponse struct {
	Records []*GenerationRecordResponse `json:"records"`
}

// ToGenerationHistoryResponse 将历史记录转换为响应 DTO
func ToGenerationHistoryResponse(records []*entity.GenerationRecord) *GenerationHistoryResponse {
	resp := &GenerationHistoryResponse{
		Records: make([]*GenerationRecordResponse, 0, len(records)),
	}
	for _, r := range records {
		genres := r.Genres
		if genres == nil {
			genres = []string{}
		}
		resp.Records = append(resp.Records, &GenerationRecordResponse{
			TaskID:       r.TaskID,
			Title:        r.Title,
			Genres:       genres,
			BookID:       r.BookID,
			Status:       string(r.Status),
			FailedStage:  string(r.FailedStage),
			ErrorMessage: r.ErrorMessage,
			ImageCount:   r.ImageCount,
			ImagesReused: r.ImagesReused,
			ChapterCount: r.ChapterCount,
			DurationMs:   r.DurationMs,
			CreatedAt:    r.CreatedAt,
		})
	}
	return resp
}
