package generation

import (
	"fmt"
	"strings"

	"book-workshop-api/internal/domain/entity"
)

// ValidateDraft 生成前校验草稿，返回 *ValidationError 列出全部不合格字段
func ValidateDraft(draft *entity.BookDraft) error {
	if draft == nil {
		return &ValidationError{Fields: []FieldError{{Field: "draft", Reason: "required"}}}
	}

	var fields []FieldError
	add := func(field, reason string) {
		fields = append(fields, FieldError{Field: field, Reason: reason})
	}

	if strings.TrimSpace(draft.Title) == "" {
		add("title", "required")
	}
	if strings.TrimSpace(draft.Idea) == "" && strings.TrimSpace(draft.Description) == "" {
		add("idea", "idea or description required")
	}
	if len(draft.Genres) == 0 {
		add("genre", "at least one genre required")
	}
	tagLists := []struct {
		name string
		tags []string
	}{
		{"genre", draft.Genres},
		{"writingStyle", draft.WritingStyles},
		{"textTone", draft.TextTones},
	}
	for _, l := range tagLists {
		if len(l.tags) > entity.MaxTagsPerList {
			add(l.name, fmt.Sprintf("at most %d tags", entity.MaxTagsPerList))
		}
	}
	if c := draft.Illustrations.Count; c < 0 || c > entity.MaxIllustrations {
		add("illustrations.count", fmt.Sprintf("must be between 0 and %d", entity.MaxIllustrations))
	}
	for i, ch := range draft.Characters {
		if strings.TrimSpace(ch.Name) == "" {
			add(fmt.Sprintf("characters[%d].name", i), "required")
		}
		if ch.Role != "" && !ch.Role.Valid() {
			add(fmt.Sprintf("characters[%d].role", i), "must be main, secondary or villain")
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
