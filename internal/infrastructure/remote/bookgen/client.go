// Package bookgen 章节生成服务客户端
package bookgen

import (
	"context"
	"errors"
	"net/http"

	"book-workshop-api/internal/config"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/infrastructure/remote"
)

// generateRequest 章节服务请求，字段名沿用服务端约定
type generateRequest struct {
	Title          string             `json:"title"`
	Genre          []string           `json:"genre"`
	Description    string             `json:"description"`
	Idea           string             `json:"idea"`
	Characters     []entity.Character `json:"characters"`
	TurningPoint   string             `json:"turningPoint"`
	UniqueFeatures string             `json:"uniqueFeatures"`
	Pages          string             `json:"pages"`
	WritingStyle   []string           `json:"writingStyle"`
	TextTone       []string           `json:"textTone"`
}

type generateResponse struct {
	// Chapters 指针区分字段缺失与空列表
	Chapters      *[]entity.Chapter `json:"chapters"`
	TotalChapters int               `json:"total_chapters"`
}

func (r *generateResponse) Validate() error {
	if r.Chapters == nil {
		return errors.New("missing chapters")
	}
	return nil
}

// Client 章节生成客户端
type Client struct {
	remote *remote.Client
}

// NewClient 创建客户端
func NewClient(cfg config.RemoteServiceConfig) *Client {
	return &Client{remote: remote.NewClient("book_gen", cfg)}
}

func newRequest(d *entity.BookDraft) *generateRequest {
	return &generateRequest{
		Title:          d.Title,
		Genre:          nonNil(d.Genres),
		Description:    d.Description,
		Idea:           d.Idea,
		Characters:     d.Characters,
		TurningPoint:   d.TurningPoint,
		UniqueFeatures: d.UniqueFeatures,
		Pages:          d.Pages,
		WritingStyle:   nonNil(d.WritingStyles),
		TextTone:       nonNil(d.TextTones),
	}
}

// GenerateChapters 一次请求生成整本书的章节
func (c *Client) GenerateChapters(ctx context.Context, cred entity.Credential, draft *entity.BookDraft) ([]entity.Chapter, error) {
	var resp generateResponse
	err := c.remote.Do(ctx, remote.Request{
		Op:     "generate_book",
		Method: http.MethodPost,
		Token:  cred.Token,
		Body:   newRequest(draft),
	}, &resp)
	if err != nil {
		return nil, err
	}
	chapters := *resp.Chapters
	if chapters == nil {
		chapters = []entity.Chapter{}
	}
	return chapters, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
