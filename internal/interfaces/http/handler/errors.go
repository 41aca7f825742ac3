// Package handler 提供 HTTP 请求处理器
package handler

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/application/workflow"
	"book-workshop-api/internal/interfaces/http/dto"
	"book-workshop-api/pkg/errors"
	"book-workshop-api/pkg/logger"
)

// toAppError 将应用层错误映射为带错误码的 AppError
func toAppError(err error) *errors.AppError {
	var (
		appErr  *errors.AppError
		valErr  *generation.ValidationError
		genErr  *generation.GenerationError
		persErr *generation.PersistenceError
	)

	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.As(err, &valErr):
		return errors.Wrap(err, errors.CodeValidationFailed, "draft validation failed").WithDetail(valErr.Error())
	case stderrors.Is(err, generation.ErrCredentialMissing):
		return errors.Wrap(err, errors.CodeTokenMissing, "token missing")
	case stderrors.Is(err, generation.ErrRunInProgress):
		return errors.Wrap(err, errors.CodeRunInProgress, "generation already in progress for this book")
	case stderrors.As(err, &genErr):
		return errors.Wrap(err, errors.CodeGenerationFailed, "generation failed").WithDetail(genErr.Error())
	case stderrors.As(err, &persErr):
		return errors.Wrap(err, errors.CodePersistenceFailed, "failed to save book").WithDetail(persErr.Error())
	case stderrors.Is(err, workflow.ErrTaskNotFound):
		return errors.Wrap(err, errors.CodeTaskNotFound, "generation task not found")
	case stderrors.Is(err, workflow.ErrNothingToSave):
		return errors.Wrap(err, errors.CodeNothingToSave, "nothing to save for this task")
	default:
		return errors.Wrap(err, errors.CodeInternalError, "internal server error")
	}
}

// respondError 写出错误响应，5xx 记录错误日志
func respondError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.HTTPStatus >= 500 {
		logger.Error(c.Request.Context(), "request failed", err, "code", appErr.Code)
	} else {
		logger.Debug(c.Request.Context(), "request rejected", "code", appErr.Code, "error", err.Error())
	}
	dto.AppError(c, appErr)
}
