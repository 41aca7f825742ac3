package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"book-workshop-api/internal/application/workflow"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/domain/repository"
	"book-workshop-api/internal/interfaces/http/dto"
	"book-workshop-api/internal/interfaces/http/middleware"
	"book-workshop-api/pkg/errors"
)

// GenerationService 生成流程
type GenerationService interface {
	Submit(ctx context.Context, cred entity.Credential, draft *entity.BookDraft, existingBookID string) (*entity.GenerationTask, error)
	Discard(ctx context.Context, task *entity.GenerationTask, cause error)
	Get(ctx context.Context, cred entity.Credential, taskID string) (*entity.GenerationTask, error)
	RetrySave(ctx context.Context, cred entity.Credential, taskID string) (*entity.GenerationTask, error)
	History(ctx context.Context, cred entity.Credential, pagination repository.Pagination) (*repository.PagedResult[*entity.GenerationRecord], error)
}

// GenerationHandler 生成任务处理器
type GenerationHandler struct {
	svc        GenerationService
	dispatcher workflow.Dispatcher
}

// NewGenerationHandler 创建生成任务处理器
func NewGenerationHandler(svc GenerationService, dispatcher workflow.Dispatcher) *GenerationHandler {
	return &GenerationHandler{
		svc:        svc,
		dispatcher: dispatcher,
	}
}

// Submit 提交生成
// @Summary 提交书籍生成
// @Description 校验草稿，创建任务并异步执行插图与章节生成，两者都成功后提交书籍
// @Tags Generations
// @Accept json
// @Produce json
// @Param X-Auth-Token header string true "用户令牌"
// @Param body body dto.SubmitGenerationRequest true "草稿"
// @Success 202 {object} dto.Response[dto.TaskResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "同一本书已有运行中的生成"
// @Router /v1/generations [post]
func (h *GenerationHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	cred := middleware.CredentialFrom(c)

	var req dto.SubmitGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Draft == nil {
		respondError(c, errors.New(errors.CodeValidationFailed, "draft validation failed").WithDetail("draft: required"))
		return
	}

	task, err := h.svc.Submit(ctx, cred, req.Draft, req.ExistingBookID)
	if err != nil {
		respondError(c, err)
		return
	}

	// 派发后任务可能已在后台被修改，先生成响应
	resp := dto.ToTaskResponse(task)
	if err := h.dispatcher.Dispatch(ctx, cred, task); err != nil {
		h.svc.Discard(ctx, task, err)
		respondError(c, errors.Wrap(err, errors.CodeMessagingError, "failed to dispatch generation"))
		return
	}

	dto.Accepted(c, resp)
}

// Get 获取任务状态与进度
// @Summary 获取生成任务
// @Tags Generations
// @Produce json
// @Param tid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.TaskResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/generations/{tid} [get]
func (h *GenerationHandler) Get(c *gin.Context) {
	task, err := h.svc.Get(c.Request.Context(), middleware.CredentialFrom(c), dto.BindTaskID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToTaskResponse(task))
}

// RetrySave 重试保存
// @Summary 重试保存
// @Description 使用已生成的插图与章节重新提交，不重新生成
// @Tags Generations
// @Produce json
// @Param tid path string true "任务 ID"
// @Success 200 {object} dto.Response[dto.TaskResponse]
// @Failure 409 {object} dto.ErrorResponse "任务不处于 save_failed"
// @Failure 502 {object} dto.ErrorResponse "书籍服务失败"
// @Router /v1/generations/{tid}/save [post]
func (h *GenerationHandler) RetrySave(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	task, err := h.svc.RetrySave(ctx, middleware.CredentialFrom(c), dto.BindTaskID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToTaskResponse(task))
}

// History 生成历史
// @Summary 生成历史
// @Tags Generations
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.Response[dto.GenerationHistoryResponse]
// @Router /v1/generations [get]
func (h *GenerationHandler) History(c *gin.Context) {
	result, err := h.svc.History(c.Request.Context(), middleware.CredentialFrom(c), dto.BindPage(c))
	if err != nil {
		respondError(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.ToGenerationHistoryResponse(result.Items), dto.PageMetaOf(result))
}
