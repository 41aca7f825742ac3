// Package booksapi 书籍持久化服务客户端
package booksapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"book-workshop-api/internal/config"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/infrastructure/remote"
)

// bookPayload 创建与更新的请求体，更新时带 id
type bookPayload struct {
	ID             string                `json:"id,omitempty"`
	Title          string                `json:"title"`
	Genre          []string              `json:"genre"`
	Description    string                `json:"description"`
	Idea           string                `json:"idea"`
	TurningPoint   string                `json:"turning_point"`
	UniqueFeatures string                `json:"unique_features"`
	Pages          string                `json:"pages"`
	WritingStyle   []string              `json:"writing_style"`
	TextTone       []string              `json:"text_tone"`
	Characters     []entity.Character    `json:"characters"`
	Illustrations  []entity.Illustration `json:"illustrations"`
	Chapters       []entity.Chapter      `json:"chapters"`
}

type saveResponse struct {
	BookID  remote.FlexibleID `json:"book_id"`
	Message string            `json:"message"`
}

type listResponse struct {
	Books []wireBook `json:"books"`
}

// wireBook 列表响应中的书，ID 可能为数字，标签可能为逗号分隔的字符串
type wireBook struct {
	ID             remote.FlexibleID  `json:"id"`
	Title          string             `json:"title"`
	Genre          tagList            `json:"genre"`
	Description    string             `json:"description"`
	Idea           string             `json:"idea"`
	TurningPoint   string             `json:"turning_point"`
	UniqueFeatures string             `json:"unique_features"`
	Pages          string             `json:"pages"`
	WritingStyle   tagList            `json:"writing_style"`
	TextTone       tagList            `json:"text_tone"`
	Characters     []wireCharacter    `json:"characters"`
	Chapters       []entity.Chapter   `json:"chapters"`
	Illustrations  []wireIllustration `json:"illustrations"`
	CreatedAt      string             `json:"created_at"`
}

type wireCharacter struct {
	ID          remote.FlexibleID `json:"id"`
	Name        string            `json:"name"`
	Age         string            `json:"age"`
	Appearance  string            `json:"appearance"`
	Personality string            `json:"personality"`
	Background  string            `json:"background"`
	Motivation  string            `json:"motivation"`
	Role        string            `json:"role"`
}

type wireIllustration struct {
	ImageURL    string `json:"image_url"`
	Style       string `json:"style"`
	ColorScheme string `json:"color_scheme"`
	Mood        string `json:"mood"`
	Order       int    `json:"order"`
}

// tagList 兼容 JSON 数组与逗号分隔字符串
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = nil
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			*t = append(*t, p)
		}
	}
	return nil
}

// Client 书籍服务客户端
type Client struct {
	remote *remote.Client
}

// NewClient 创建客户端
func NewClient(cfg config.RemoteServiceConfig) *Client {
	return &Client{remote: remote.NewClient("books_api", cfg)}
}

// CreateBook 新建书籍，返回服务端分配的 ID
func (c *Client) CreateBook(ctx context.Context, cred entity.Credential, book *entity.PersistedBook) (string, error) {
	return c.save(ctx, "create_book", cred, toPayload(book, ""))
}

// UpdateBook 按 book.ID 原地更新
func (c *Client) UpdateBook(ctx context.Context, cred entity.Credential, book *entity.PersistedBook) (string, error) {
	id, err := c.save(ctx, "update_book", cred, toPayload(book, book.ID))
	if err != nil {
		return "", err
	}
	if id == "" {
		id = book.ID
	}
	return id, nil
}

func (c *Client) save(ctx context.Context, op string, cred entity.Credential, payload *bookPayload) (string, error) {
	var resp saveResponse
	err := c.remote.Do(ctx, remote.Request{
		Op:     op,
		Method: http.MethodPost,
		Token:  cred.Token,
		Body:   payload,
	}, &resp)
	if err != nil {
		return "", err
	}
	return string(resp.BookID), nil
}

// ListBooks 列出调用方的全部书籍
func (c *Client) ListBooks(ctx context.Context, cred entity.Credential) ([]*entity.PersistedBook, error) {
	var resp listResponse
	err := c.remote.Do(ctx, remote.Request{
		Op:     "list_books",
		Method: http.MethodGet,
		Token:  cred.Token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	books := make([]*entity.PersistedBook, 0, len(resp.Books))
	for i := range resp.Books {
		books = append(books, resp.Books[i].toEntity())
	}
	return books, nil
}

// DeleteBook 删除书籍
func (c *Client) DeleteBook(ctx context.Context, cred entity.Credential, id string) error {
	return c.remote.Do(ctx, remote.Request{
		Op:     "delete_book",
		Method: http.MethodDelete,
		Query:  url.Values{"id": {id}},
		Token:  cred.Token,
	}, nil)
}

func toPayload(b *entity.PersistedBook, id string) *bookPayload {
	return &bookPayload{
		ID:             id,
		Title:          b.Title,
		Genre:          nonNil(b.Genres),
		Description:    b.Description,
		Idea:           b.Idea,
		TurningPoint:   b.TurningPoint,
		UniqueFeatures: b.UniqueFeatures,
		Pages:          b.Pages,
		WritingStyle:   nonNil(b.WritingStyles),
		TextTone:       nonNil(b.TextTones),
		Characters:     nonNilSlice(b.Characters),
		Illustrations:  nonNilSlice(b.Illustrations),
		Chapters:       nonNilSlice(b.Chapters),
	}
}

func (w *wireBook) toEntity() *entity.PersistedBook {
	b := &entity.PersistedBook{
		ID:             string(w.ID),
		Title:          w.Title,
		Genres:         w.Genre,
		Description:    w.Description,
		Idea:           w.Idea,
		TurningPoint:   w.TurningPoint,
		UniqueFeatures: w.UniqueFeatures,
		Pages:          w.Pages,
		WritingStyles:  w.WritingStyle,
		TextTones:      w.TextTone,
		Chapters:       w.Chapters,
		CreatedAt:      w.CreatedAt,
	}
	for _, c := range w.Characters {
		b.Characters = append(b.Characters, entity.Character{
			ID:          string(c.ID),
			Name:        c.Name,
			Age:         c.Age,
			Appearance:  c.Appearance,
			Personality: c.Personality,
			Background:  c.Background,
			Motivation:  c.Motivation,
			Role:        entity.CharacterRole(c.Role),
		})
	}
	for i, ill := range w.Illustrations {
		order := ill.Order
		if order <= 0 {
			order = i + 1
		}
		b.Illustrations = append(b.Illustrations, entity.Illustration{
			ImageURL:    ill.ImageURL,
			Style:       ill.Style,
			ColorScheme: ill.ColorScheme,
			Mood:        ill.Mood,
			Order:       order,
		})
	}
	return b
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
