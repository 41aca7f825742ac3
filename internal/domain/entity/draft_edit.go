package entity

import (
	"slices"

	"github.com/google/uuid"
)

// ToggleGenre 切换体裁标签；已达上限时添加无效并返回 false
func (d *BookDraft) ToggleGenre(genre string) bool {
	return toggleTag(&d.Genres, genre)
}

// ToggleWritingStyle 切换文风标签
func (d *BookDraft) ToggleWritingStyle(style string) bool {
	return toggleTag(&d.WritingStyles, style)
}

// ToggleTextTone 切换语气标签
func (d *BookDraft) ToggleTextTone(tone string) bool {
	return toggleTag(&d.TextTones, tone)
}

// toggleTag 已存在则移除，否则在未满时追加。返回列表是否发生变化
func toggleTag(list *[]string, tag string) bool {
	if i := slices.Index(*list, tag); i >= 0 {
		*list = slices.Delete(*list, i, i+1)
		return true
	}
	if len(*list) >= MaxTagsPerList {
		return false
	}
	*list = append(*list, tag)
	return true
}

// AddCharacter 添加角色并分配 ID
func (d *BookDraft) AddCharacter(c Character) Character {
	c.ID = uuid.NewString()
	if c.Role == "" {
		c.Role = RoleMain
	}
	d.Characters = append(d.Characters, c)
	return c
}

// UpdateCharacter 按 ID 替换角色，未找到返回 false
func (d *BookDraft) UpdateCharacter(c Character) bool {
	for i := range d.Characters {
		if d.Characters[i].ID == c.ID {
			d.Characters[i] = c
			return true
		}
	}
	return false
}

// RemoveCharacter 按 ID 删除角色
func (d *BookDraft) RemoveCharacter(id string) bool {
	n := len(d.Characters)
	d.Characters = slices.DeleteFunc(d.Characters, func(c Character) bool { return c.ID == id })
	return len(d.Characters) != n
}

// RemoveGeneratedImage 删除预生成图片中的第 idx 张
func (d *BookDraft) RemoveGeneratedImage(idx int) bool {
	if idx < 0 || idx >= len(d.GeneratedImages) {
		return false
	}
	d.GeneratedImages = slices.Delete(d.GeneratedImages, idx, idx+1)
	return true
}
