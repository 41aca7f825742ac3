// Package imagegen 插图生成服务客户端
package imagegen

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"book-workshop-api/internal/config"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/infrastructure/remote"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	URL         string `json:"url"`
	GeneratedBy string `json:"generated_by,omitempty"`
}

func (r *generateResponse) Validate() error {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return errors.New("missing url")
	}
	return nil
}

// Client 插图生成客户端
type Client struct {
	remote *remote.Client
}

// NewClient 创建客户端
func NewClient(cfg config.RemoteServiceConfig) *Client {
	return &Client{remote: remote.NewClient("image_gen", cfg)}
}

// GenerateImage 根据提示词生成一张插图，返回图片地址
func (c *Client) GenerateImage(ctx context.Context, cred entity.Credential, prompt string) (string, error) {
	var resp generateResponse
	err := c.remote.Do(ctx, remote.Request{
		Op:     "generate_image",
		Method: http.MethodPost,
		Token:  cred.Token,
		Body:   &generateRequest{Prompt: prompt},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}
