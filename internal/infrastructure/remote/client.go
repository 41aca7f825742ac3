// Package remote 提供外部 HTTP 服务的 JSON 调用基础设施
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"book-workshop-api/internal/config"
	"book-workshop-api/pkg/metrics"
	"book-workshop-api/pkg/tracer"
)

// AuthHeader 调用方凭证所在的请求头
const AuthHeader = "X-Auth-Token"

const (
	defaultTimeout  = 60 * time.Second
	maxResponseSize = 32 << 20
	maxBodyInError  = 4096
)

// ErrMalformedResponse 响应体无法解析或缺少必要字段
var ErrMalformedResponse = errors.New("malformed response")

// ResponseError 非 2xx 或无法解析的响应，保留原始响应体
type ResponseError struct {
	Service    string
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *ResponseError) Error() string {
	detail := e.Message
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if detail == "" {
		detail = truncate(e.Body, 200)
	}
	return fmt.Sprintf("%s: status=%d: %s", e.Service, e.StatusCode, detail)
}

func (e *ResponseError) Unwrap() error        { return e.Err }
func (e *ResponseError) HTTPStatus() int      { return e.StatusCode }
func (e *ResponseError) ResponseBody() string { return e.Body }
func (e *ResponseError) ServerMessage() string {
	return e.Message
}

// Validator 响应体解码后的字段校验，失败按响应格式错误处理
type Validator interface {
	Validate() error
}

// Request 一次 JSON 调用
type Request struct {
	// Op 用于指标与追踪的操作名
	Op     string
	Method string
	Path   string
	Query  url.Values
	Token  string
	Body   any
}

// Client 单个外部服务的 JSON 客户端
type Client struct {
	service    string
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(service string, cfg config.RemoteServiceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		service:    service,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Do 发送请求并把 2xx 响应解码到 out（out 为 nil 时忽略响应体）。
// out 实现 Validator 时解码后再校验，错误中保留真实状态码。
func (c *Client) Do(ctx context.Context, req Request, out any) (err error) {
	ctx, span := tracer.Start(ctx, "remote."+c.service+"."+req.Op)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		label := "ok"
		if err != nil {
			label = "error"
			tracer.Fail(span, err)
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		metrics.RemoteCallDuration.WithLabelValues(c.service, req.Op).Observe(time.Since(start).Seconds())
		metrics.RemoteCallTotal.WithLabelValues(c.service, req.Op, label).Inc()
	}()

	if c.baseURL == "" {
		return fmt.Errorf("%s base url is empty", c.service)
	}
	u, err := url.Parse(c.baseURL + req.Path)
	if err != nil {
		return fmt.Errorf("invalid %s url: %w", c.service, err)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", c.service, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", c.service, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set(AuthHeader, req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.service, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read %s response: %w", c.service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ResponseError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(raw), maxBodyInError),
			Message:    serverMessage(raw),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return c.malformed(resp.StatusCode, raw, err)
	}
	if v, ok := out.(Validator); ok {
		if err := v.Validate(); err != nil {
			return c.malformed(resp.StatusCode, raw, err)
		}
	}
	return nil
}

func (c *Client) malformed(status int, raw []byte, cause error) *ResponseError {
	err := ErrMalformedResponse
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrMalformedResponse, cause)
	}
	return &ResponseError{
		Service:    c.service,
		StatusCode: status,
		Body:       truncate(string(raw), maxBodyInError),
		Err:        err,
	}
}

// serverMessage 解析 {"error": "..."} 或 {"message": "..."}
func serverMessage(raw []byte) string {
	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	switch v := body.Error.(type) {
	case string:
		if v != "" {
			return v
		}
	case map[string]any:
		if m, ok := v["message"].(string); ok && m != "" {
			return m
		}
	}
	return body.Message
}

// FlexibleID 兼容数字与字符串形式的 ID
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*id = FlexibleID(str)
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("invalid id %s", s)
	}
	*id = FlexibleID(s)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
