package generation

import (
	"fmt"
	"strings"

	"book-workshop-api/internal/domain/entity"
)

const promptStoryMaxRunes = 400

// IllustrationPrompt 生成第 position 张（从 1 开始，共 total 张）插图的提示词。
// 同一草稿的提示词只随序号变化，保证整组插图风格一致。
func IllustrationPrompt(draft *entity.BookDraft, position, total int) string {
	story := compactOneLine(draft.Description)
	if story == "" {
		story = compactOneLine(draft.Idea)
	}
	story = truncateRunes(story, promptStoryMaxRunes)

	lines := []string{
		fmt.Sprintf("Book illustration %d of %d for the book %q.", position, total, strings.TrimSpace(draft.Title)),
	}
	if story != "" {
		lines = append(lines, "Story: "+story)
	}
	if len(draft.Genres) > 0 {
		lines = append(lines, "Genre: "+strings.Join(draft.Genres, ", ")+".")
	}
	if s := strings.TrimSpace(draft.Illustrations.Style); s != "" {
		lines = append(lines, "Art style: "+s+".")
	}
	if s := strings.TrimSpace(draft.Illustrations.ColorScheme); s != "" {
		lines = append(lines, "Color scheme: "+s+".")
	}
	if s := strings.TrimSpace(draft.Illustrations.Mood); s != "" {
		lines = append(lines, "Mood: "+s+".")
	}
	lines = append(lines, "Keep characters and visual style consistent across the whole series.")
	return strings.Join(lines, " ")
}

func compactOneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}
