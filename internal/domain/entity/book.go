// Package entity 定义领域实体
package entity

// MaxTagsPerList 体裁、文风、语气标签各自的上限
const MaxTagsPerList = 3

// MaxIllustrations 单本书插图数量的实际上限
const MaxIllustrations = 25

// CharacterRole 角色定位
type CharacterRole string

const (
	RoleMain      CharacterRole = "main"
	RoleSecondary CharacterRole = "secondary"
	RoleVillain   CharacterRole = "villain"
)

// Valid 检查角色定位是否合法
func (r CharacterRole) Valid() bool {
	switch r {
	case RoleMain, RoleSecondary, RoleVillain:
		return true
	default:
		return false
	}
}

// Character 书中角色，仅存在于草稿内
type Character struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Age         string        `json:"age" yaml:"age"`
	Appearance  string        `json:"appearance" yaml:"appearance"`
	Personality string        `json:"personality" yaml:"personality"`
	Background  string        `json:"background" yaml:"background"`
	Motivation  string        `json:"motivation" yaml:"motivation"`
	Role        CharacterRole `json:"role" yaml:"role"`
}

// IllustrationSettings 插图生成参数
type IllustrationSettings struct {
	Count       int    `json:"count" yaml:"count"`
	Style       string `json:"style" yaml:"style"`
	ColorScheme string `json:"colorScheme" yaml:"color_scheme"`
	Mood        string `json:"mood" yaml:"mood"`
}

// BookDraft 用户正在编辑、尚未持久化的书籍
type BookDraft struct {
	Title           string               `json:"title" yaml:"title"`
	Genres          []string             `json:"genre" yaml:"genres"`
	Description     string               `json:"description" yaml:"description"`
	Idea            string               `json:"idea" yaml:"idea"`
	TurningPoint    string               `json:"turningPoint" yaml:"turning_point"`
	UniqueFeatures  string               `json:"uniqueFeatures" yaml:"unique_features"`
	Pages           string               `json:"pages" yaml:"pages"`
	WritingStyles   []string             `json:"writingStyle" yaml:"writing_styles"`
	TextTones       []string             `json:"textTone" yaml:"text_tones"`
	Characters      []Character          `json:"characters" yaml:"characters"`
	Illustrations   IllustrationSettings `json:"illustrations" yaml:"illustrations"`
	GeneratedImages []string             `json:"generatedImages" yaml:"generated_images"`
}

// Snapshot 返回草稿的深拷贝，生成过程中只读取快照
func (d *BookDraft) Snapshot() BookDraft {
	snap := *d
	snap.Genres = cloneStrings(d.Genres)
	snap.WritingStyles = cloneStrings(d.WritingStyles)
	snap.TextTones = cloneStrings(d.TextTones)
	snap.GeneratedImages = cloneStrings(d.GeneratedImages)
	if d.Characters != nil {
		snap.Characters = make([]Character, len(d.Characters))
		copy(snap.Characters, d.Characters)
	}
	return snap
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Chapter 生成的章节
type Chapter struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Illustration 已持久化的插图记录
type Illustration struct {
	ImageURL    string `json:"image_url"`
	Style       string `json:"style"`
	ColorScheme string `json:"color_scheme"`
	Mood        string `json:"mood"`
	// Order 生成顺序，从 1 开始
	Order int `json:"order"`
}

// PersistedBook 书籍服务中已提交的书
type PersistedBook struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Genres         []string       `json:"genre"`
	Description    string         `json:"description"`
	Idea           string         `json:"idea"`
	TurningPoint   string         `json:"turning_point"`
	UniqueFeatures string         `json:"unique_features"`
	Pages          string         `json:"pages"`
	WritingStyles  []string       `json:"writing_style"`
	TextTones      []string       `json:"text_tone"`
	Characters     []Character    `json:"characters"`
	Chapters       []Chapter      `json:"chapters"`
	Illustrations  []Illustration `json:"illustrations"`
	CreatedAt      string         `json:"created_at,omitempty"`
}
