package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"book-workshop-api/internal/domain/entity"
)

func TestGenerationRecordModel_RoundTrip(t *testing.T) {
	rec := &entity.GenerationRecord{
		ID:           "11111111-1111-1111-1111-111111111111",
		TaskID:       "22222222-2222-2222-2222-222222222222",
		Owner:        "abcd",
		Title:        "T",
		Genres:       []string{"fantasy", "mystery"},
		Status:       entity.TaskStatusSaveFailed,
		FailedStage:  entity.StageCommit,
		ImageCount:   2,
		ImagesReused: true,
		ChapterCount: 5,
		DurationMs:   1200,
		CreatedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	m := toRecordModel(rec)
	assert.Equal(t, "save_failed", m.Status)
	assert.Equal(t, "generation_records", m.TableName())
	assert.Equal(t, rec, m.toEntity())
}
