package entity

import "time"

// GeneratedArtifacts 一次成功生成的产物，提交失败时暂存以便仅重试提交
type GeneratedArtifacts struct {
	TaskID   string    `json:"task_id"`
	Images   []string  `json:"images"`
	Chapters []Chapter `json:"chapters"`
	StoredAt time.Time `json:"stored_at"`
}

// GenerationRecord 生成历史记录
type GenerationRecord struct {
	ID             string       `json:"id"`
	TaskID         string       `json:"task_id"`
	Owner          string       `json:"owner"`
	Title          string       `json:"title"`
	Genres         []string     `json:"genres"`
	ExistingBookID string       `json:"existing_book_id,omitempty"`
	BookID         string       `json:"book_id,omitempty"`
	Status         TaskStatus   `json:"status"`
	FailedStage    FailureStage `json:"failed_stage,omitempty"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	ImageCount     int          `json:"image_count"`
	ImagesReused   bool         `json:"images_reused"`
	ChapterCount   int          `json:"chapter_count"`
	DurationMs     int64        `json:"duration_ms"`
	CreatedAt      time.Time    `json:"created_at"`
}
