package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"book-workshop-api/internal/domain/repository"
	"book-workshop-api/pkg/errors"
)

// Response 统一响应结构
type Response[T any] struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    T         `json:"data,omitempty"`
	Meta    *PageMeta `json:"meta,omitempty"`
	TraceID string    `json:"trace_id,omitempty"`
}

// PageMeta 分页元数据
type PageMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ErrorDetail 业务错误码与服务端原始信息
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

func respond[T any](c *gin.Context, status int, message string, data T, meta *PageMeta) {
	c.JSON(status, Response[T]{
		Code:    status,
		Message: message,
		Data:    data,
		Meta:    meta,
		TraceID: c.GetString("trace_id"),
	})
}

// Success 200
func Success[T any](c *gin.Context, data T) {
	respond(c, http.StatusOK, "success", data, nil)
}

// SuccessWithPage 200，附分页信息
func SuccessWithPage[T any](c *gin.Context, data T, meta *PageMeta) {
	respond(c, http.StatusOK, "success", data, meta)
}

// Accepted 202，任务已受理
func Accepted[T any](c *gin.Context, data T) {
	respond(c, http.StatusAccepted, "accepted", data, nil)
}

// BadRequest 400，请求参数无法解析
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
		Error:   &ErrorDetail{ErrorCode: string(errors.CodeInvalidParam)},
		TraceID: c.GetString("trace_id"),
	})
}

// AppError 按 AppError 的状态码与错误码返回
func AppError(c *gin.Context, err *errors.AppError) {
	c.JSON(err.HTTPStatus, errorBody(c, err))
}

// AbortWithAppError 中间件中返回错误并终止后续处理
func AbortWithAppError(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, errorBody(c, err))
}

func errorBody(c *gin.Context, err *errors.AppError) ErrorResponse {
	return ErrorResponse{
		Code:    err.HTTPStatus,
		Message: err.Message,
		Error: &ErrorDetail{
			ErrorCode: string(err.Code),
			Details:   err.Detail,
		},
		TraceID: c.GetString("trace_id"),
	}
}

// PageMetaOf 由分页结果生成元数据
func PageMetaOf[T any](r *repository.PagedResult[T]) *PageMeta {
	return &PageMeta{
		Page:       r.Page,
		PageSize:   r.PageSize,
		Total:      r.Total,
		TotalPages: r.TotalPages,
	}
}
