// Package generation 实现插图与章节的协同生成
package generation

import (
	"errors"
	"fmt"
	"strings"
)

// Source 生成失败来自哪个子任务
type Source string

const (
	SourceImages Source = "images"
	SourceText   Source = "text"
)

var (
	// ErrRunInProgress 同一编排器或同一本书已有运行中的生成
	ErrRunInProgress = errors.New("generation run already in progress")
	// ErrCredentialMissing 调用外部服务前未提供凭证
	ErrCredentialMissing = errors.New("credential is missing")
	// ErrNoChapters 章节服务响应缺少 chapters 字段
	ErrNoChapters = errors.New("response has no chapters")
)

// FieldError 单个字段的校验失败
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError 草稿不满足生成前置条件
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// GenerationError 插图或章节生成失败
type GenerationError struct {
	Source Source
	// Index 失败插图的下标（从 0 开始），文本失败时为 -1
	Index      int
	StatusCode int
	// Body 远端原始响应体
	Body string
	Err  error
}

func (e *GenerationError) Error() string {
	if e.Source == SourceImages {
		return fmt.Sprintf("image generation failed at index %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("text generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// PersistenceError 书籍服务调用失败
type PersistenceError struct {
	Op         string
	StatusCode int
	// Message 服务端返回的错误信息，原样保留
	Message string
	Err     error
}

func (e *PersistenceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("books %s failed (status %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("books %s failed: %s", e.Op, msg)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// remoteFailure 由远端客户端错误实现，用于提取状态码与原始响应体
type remoteFailure interface {
	HTTPStatus() int
	ResponseBody() string
}

// RemoteDetails 从错误链中提取远端状态码与响应体
func RemoteDetails(err error) (int, string) {
	var rf remoteFailure
	if errors.As(err, &rf) {
		return rf.HTTPStatus(), rf.ResponseBody()
	}
	return 0, ""
}

// remoteMessage 由能解析服务端错误信息的客户端错误实现
type remoteMessage interface {
	ServerMessage() string
}

// RemoteMessage 提取服务端返回的错误信息
func RemoteMessage(err error) string {
	var rm remoteMessage
	if errors.As(err, &rm) {
		return rm.ServerMessage()
	}
	return ""
}
