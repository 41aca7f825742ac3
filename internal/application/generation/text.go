package generation

import (
	"context"

	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/pkg/logger"
)

// ChapterClient 整本书的章节生成
type ChapterClient interface {
	GenerateChapters(ctx context.Context, cred entity.Credential, draft *entity.BookDraft) ([]entity.Chapter, error)
}

// TextGenerator 发起一次章节生成请求
type TextGenerator struct {
	client ChapterClient
}

// NewTextGenerator 创建章节生成器
func NewTextGenerator(client ChapterClient) *TextGenerator {
	return &TextGenerator{client: client}
}

// Generate 调用开始时回调一次 pending，结束时回调一次 done 或 error
func (g *TextGenerator) Generate(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, onStatus func(entity.TextStatus)) ([]entity.Chapter, error) {
	notify := func(s entity.TextStatus) {
		if onStatus != nil {
			onStatus(s)
		}
	}
	notify(entity.TextStatus{State: entity.TextPending})

	chapters, err := g.client.GenerateChapters(ctx, cred, draft)
	if err == nil && chapters == nil {
		err = ErrNoChapters
	}
	if err != nil {
		notify(entity.TextStatus{State: entity.TextError})
		status, body := RemoteDetails(err)
		logger.Warn(ctx, "chapter generation failed", "status", status, "error", err.Error())
		return nil, &GenerationError{
			Source:     SourceText,
			Index:      -1,
			StatusCode: status,
			Body:       body,
			Err:        err,
		}
	}

	notify(entity.TextStatus{State: entity.TextDone, Chapters: len(chapters)})
	return chapters, nil
}
