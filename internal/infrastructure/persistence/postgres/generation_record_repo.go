package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/domain/repository"
)

// generationRecordModel generation_records 表
type generationRecordModel struct {
	ID             string         `gorm:"type:uuid;primaryKey"`
	TaskID         string         `gorm:"type:uuid;index;not null"`
	Owner          string         `gorm:"type:varchar(64);index:idx_generation_records_owner_created,priority:1;not null"`
	Title          string         `gorm:"type:text"`
	Genres         pq.StringArray `gorm:"type:text[]"`
	ExistingBookID string         `gorm:"type:varchar(64)"`
	BookID         string         `gorm:"type:varchar(64)"`
	Status         string         `gorm:"type:varchar(32);not null"`
	FailedStage    string         `gorm:"type:varchar(32)"`
	ErrorMessage   string         `gorm:"type:text"`
	ImageCount     int
	ImagesReused   bool
	ChapterCount   int
	DurationMs     int64
	CreatedAt      time.Time `gorm:"index:idx_generation_records_owner_created,priority:2,sort:desc"`
}

func (generationRecordModel) TableName() string {
	return "generation_records"
}

func toRecordModel(r *entity.GenerationRecord) *generationRecordModel {
	return &generationRecordModel{
		ID:             r.ID,
		TaskID:         r.TaskID,
		Owner:          r.Owner,
		Title:          r.Title,
		Genres:         pq.StringArray(r.Genres),
		ExistingBookID: r.ExistingBookID,
		BookID:         r.BookID,
		Status:         string(r.Status),
		FailedStage:    string(r.FailedStage),
		ErrorMessage:   r.ErrorMessage,
		ImageCount:     r.ImageCount,
		ImagesReused:   r.ImagesReused,
		ChapterCount:   r.ChapterCount,
		DurationMs:     r.DurationMs,
		CreatedAt:      r.CreatedAt,
	}
}

func (m *generationRecordModel) toEntity() *entity.GenerationRecord {
	return &entity.GenerationRecord{
		ID:             m.ID,
		TaskID:         m.TaskID,
		Owner:          m.Owner,
		Title:          m.Title,
		Genres:         []string(m.Genres),
		ExistingBookID: m.ExistingBookID,
		BookID:         m.BookID,
		Status:         entity.TaskStatus(m.Status),
		FailedStage:    entity.FailureStage(m.FailedStage),
		ErrorMessage:   m.ErrorMessage,
		ImageCount:     m.ImageCount,
		ImagesReused:   m.ImagesReused,
		ChapterCount:   m.ChapterCount,
		DurationMs:     m.DurationMs,
		CreatedAt:      m.CreatedAt,
	}
}

// GenerationRecordRepository 生成历史仓储实现
type GenerationRecordRepository struct {
	client *Client
}

// NewGenerationRecordRepository 创建生成历史仓储
func NewGenerationRecordRepository(client *Client) *GenerationRecordRepository {
	return &GenerationRecordRepository{client: client}
}

// Create 写入历史记录
func (r *GenerationRecordRepository) Create(ctx context.Context, record *entity.GenerationRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRecordRepository.Create")
	defer span.End()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if err := r.client.db.WithContext(ctx).Create(toRecordModel(record)).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create generation record: %w", err)
	}
	return nil
}

// ListByOwner 分页查询调用方的历史
func (r *GenerationRecordRepository) ListByOwner(ctx context.Context, owner string, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationRecord], error) {
	ctx, span := tracer.Start(ctx, "postgres.GenerationRecordRepository.ListByOwner")
	defer span.End()

	query := r.client.db.WithContext(ctx).Model(&generationRecordModel{}).Where("owner = ?", owner)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count generation records: %w", err)
	}

	var models []*generationRecordModel
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&models).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list generation records: %w", err)
	}

	items := make([]*entity.GenerationRecord, 0, len(models))
	for _, m := range models {
		items = append(items, m.toEntity())
	}
	return repository.NewPagedResult(items, total, pagination), nil
}
