// Package export 将已提交的书导出为 Markdown 或 HTML
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"book-workshop-api/internal/domain/entity"
)

// Format 导出格式
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// ParseFormat 解析导出格式，空值为 md
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType 对应的 MIME 类型
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/markdown; charset=utf-8"
}

// Render 按格式导出
func Render(book *entity.PersistedBook, f Format) ([]byte, error) {
	if f == FormatHTML {
		s, err := HTML(book)
		return []byte(s), err
	}
	return []byte(Markdown(book)), nil
}

// Markdown 导出为 Markdown：标题、简介、按章节顺序排列的正文，插图按序穿插在章节之后
func Markdown(book *entity.PersistedBook) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", oneLine(book.Title))
	writeMeta(&b, "Genre", strings.Join(book.Genres, ", "))
	writeMeta(&b, "Writing style", strings.Join(book.WritingStyles, ", "))
	writeMeta(&b, "Tone", strings.Join(book.TextTones, ", "))
	writeMeta(&b, "Pages", book.Pages)
	b.WriteString("\n")

	if s := strings.TrimSpace(book.Description); s != "" {
		b.WriteString("> " + oneLine(s) + "\n\n")
	}

	if len(book.Characters) > 0 {
		b.WriteString("## Characters\n\n")
		for _, c := range book.Characters {
			line := "- **" + oneLine(c.Name) + "**"
			if c.Role != "" {
				line += " (" + string(c.Role) + ")"
			}
			if s := strings.TrimSpace(c.Personality); s != "" {
				line += ": " + oneLine(s)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	placed := placeIllustrations(len(book.Illustrations), len(book.Chapters))
	for i, ch := range book.Chapters {
		title := strings.TrimSpace(ch.Title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		fmt.Fprintf(&b, "## %s\n\n", oneLine(title))
		b.WriteString(strings.TrimSpace(ch.Text))
		b.WriteString("\n\n")
		for _, j := range placed[i] {
			writeIllustration(&b, book.Illustrations[j])
		}
	}
	if len(book.Chapters) == 0 && len(book.Illustrations) > 0 {
		b.WriteString("## Illustrations\n\n")
		for _, ill := range book.Illustrations {
			writeIllustration(&b, ill)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// HTML 以 goldmark 渲染 Markdown 并包装为完整文档
func HTML(book *entity.PersistedBook) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(book)), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(book.Title))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// placeIllustrations 把 n 张插图按顺序均匀分配到 chapters 个章节之后
func placeIllustrations(n, chapters int) [][]int {
	out := make([][]int, chapters)
	if chapters == 0 {
		return out
	}
	for j := 0; j < n; j++ {
		idx := j * chapters / n
		out[idx] = append(out[idx], j)
	}
	return out
}

func writeMeta(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, oneLine(value))
}

func writeIllustration(b *strings.Builder, ill entity.Illustration) {
	fmt.Fprintf(b, "![Illustration %d](%s)\n\n", ill.Order, ill.ImageURL)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
