package generation

import (
	"context"

	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/pkg/logger"
)

// IllustrationClient 单张插图生成
type IllustrationClient interface {
	GenerateImage(ctx context.Context, cred entity.Credential, prompt string) (string, error)
}

// ImageBatchGenerator 按顺序逐张生成一组插图
type ImageBatchGenerator struct {
	client IllustrationClient
}

// NewImageBatchGenerator 创建插图批量生成器
func NewImageBatchGenerator(client IllustrationClient) *ImageBatchGenerator {
	return &ImageBatchGenerator{client: client}
}

// Generate 依次发起 Count 次请求，每张成功后同步回调 onProgress(已完成数)。
// 任一张失败立即中止，已生成的插图不返回。
func (g *ImageBatchGenerator) Generate(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, onProgress func(completed int)) ([]string, error) {
	total := draft.Illustrations.Count
	if total <= 0 {
		return []string{}, nil
	}

	images := make([]string, 0, total)
	for i := 0; i < total; i++ {
		url, err := g.client.GenerateImage(ctx, cred, IllustrationPrompt(draft, i+1, total))
		if err != nil {
			status, body := RemoteDetails(err)
			logger.Warn(ctx, "illustration generation failed",
				"index", i,
				"total", total,
				"status", status,
				"error", err.Error(),
			)
			return nil, &GenerationError{
				Source:     SourceImages,
				Index:      i,
				StatusCode: status,
				Body:       body,
				Err:        err,
			}
		}
		images = append(images, url)
		if onProgress != nil {
			onProgress(i + 1)
		}
	}
	return images, nil
}
