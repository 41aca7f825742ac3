// Package commit 将生成结果提交到书籍服务
package commit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/pkg/logger"
	"book-workshop-api/pkg/metrics"
	"book-workshop-api/pkg/tracer"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpList   = "list"
	OpDelete = "delete"
)

// BooksClient 书籍服务
type BooksClient interface {
	CreateBook(ctx context.Context, cred entity.Credential, book *entity.PersistedBook) (string, error)
	UpdateBook(ctx context.Context, cred entity.Credential, book *entity.PersistedBook) (string, error)
	ListBooks(ctx context.Context, cred entity.Credential) ([]*entity.PersistedBook, error)
	DeleteBook(ctx context.Context, cred entity.Credential, id string) error
}

// Service 书籍提交服务
type Service struct {
	books BooksClient
	lists singleflight.Group
}

// NewService 创建提交服务
func NewService(books BooksClient) *Service {
	return &Service{books: books}
}

// BuildPayload 组装提交内容，插图按生成顺序编号（从 1 开始）并统一使用草稿的插图设置
func BuildPayload(draft *entity.BookDraft, images []string, chapters []entity.Chapter) *entity.PersistedBook {
	illustrations := make([]entity.Illustration, 0, len(images))
	for i, url := range images {
		illustrations = append(illustrations, entity.Illustration{
			ImageURL:    url,
			Style:       draft.Illustrations.Style,
			ColorScheme: draft.Illustrations.ColorScheme,
			Mood:        draft.Illustrations.Mood,
			Order:       i + 1,
		})
	}

	snap := draft.Snapshot()
	return &entity.PersistedBook{
		Title:          snap.Title,
		Genres:         snap.Genres,
		Description:    snap.Description,
		Idea:           snap.Idea,
		TurningPoint:   snap.TurningPoint,
		UniqueFeatures: snap.UniqueFeatures,
		Pages:          snap.Pages,
		WritingStyles:  snap.WritingStyles,
		TextTones:      snap.TextTones,
		Characters:     snap.Characters,
		Chapters:       chapters,
		Illustrations:  illustrations,
	}
}

// Save 提交书籍。existingBookID 非空时更新，否则新建。
// 不重试也不去重，失败返回 *generation.PersistenceError。
func (s *Service) Save(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, images []string, chapters []entity.Chapter, existingBookID string) (string, error) {
	op := OpCreate
	if existingBookID != "" {
		op = OpUpdate
	}
	if !cred.Present() {
		metrics.CommitTotal.WithLabelValues(op, "rejected").Inc()
		return "", &generation.PersistenceError{Op: op, Err: generation.ErrCredentialMissing}
	}

	if op == OpUpdate {
		ctx = logger.WithContext(ctx, logger.BookIDKey, existingBookID)
	}
	ctx, span := tracer.Start(ctx, "commit.Save")
	defer span.End()

	payload := BuildPayload(draft, images, chapters)
	start := time.Now()

	var (
		id  string
		err error
	)
	if op == OpUpdate {
		payload.ID = existingBookID
		id, err = s.books.UpdateBook(ctx, cred, payload)
	} else {
		id, err = s.books.CreateBook(ctx, cred, payload)
	}
	if err != nil {
		tracer.Fail(span, err)
		metrics.CommitTotal.WithLabelValues(op, "error").Inc()
		perr := persistenceError(op, err)
		logger.Error(ctx, "book commit failed", perr,
			"op", op,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", perr
	}
	if id == "" {
		id = existingBookID
	}
	if op == OpCreate {
		ctx = logger.WithContext(ctx, logger.BookIDKey, id)
	}

	metrics.CommitTotal.WithLabelValues(op, "success").Inc()
	logger.Info(ctx, "book committed",
		"op", op,
		"illustrations", len(images),
		"chapters", len(chapters),
	)
	return id, nil
}

// List 列出调用方的书，同一凭证的并发请求合并为一次调用
func (s *Service) List(ctx context.Context, cred entity.Credential) ([]*entity.PersistedBook, error) {
	if !cred.Present() {
		return nil, &generation.PersistenceError{Op: OpList, Err: generation.ErrCredentialMissing}
	}
	v, err, _ := s.lists.Do(cred.Subject(), func() (any, error) {
		return s.books.ListBooks(ctx, cred)
	})
	if err != nil {
		return nil, persistenceError(OpList, err)
	}
	return v.([]*entity.PersistedBook), nil
}

// Get 按 ID 查找，不存在返回 nil, nil
func (s *Service) Get(ctx context.Context, cred entity.Credential, id string) (*entity.PersistedBook, error) {
	books, err := s.List(ctx, cred)
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

// Delete 删除书籍
func (s *Service) Delete(ctx context.Context, cred entity.Credential, id string) error {
	if !cred.Present() {
		return &generation.PersistenceError{Op: OpDelete, Err: generation.ErrCredentialMissing}
	}
	ctx = logger.WithContext(ctx, logger.BookIDKey, id)
	if err := s.books.DeleteBook(ctx, cred, id); err != nil {
		metrics.CommitTotal.WithLabelValues(OpDelete, "error").Inc()
		perr := persistenceError(OpDelete, err)
		logger.Error(ctx, "book delete failed", perr)
		return perr
	}
	metrics.CommitTotal.WithLabelValues(OpDelete, "success").Inc()
	logger.Info(ctx, "book deleted")
	return nil
}

func persistenceError(op string, err error) *generation.PersistenceError {
	status, _ := generation.RemoteDetails(err)
	return &generation.PersistenceError{
		Op:         op,
		StatusCode: status,
		Message:    generation.RemoteMessage(err),
		Err:        fmt.Errorf("books api: %w", err),
	}
}
