package handler

import (
	"context"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"book-workshop-api/internal/application/export"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/interfaces/http/dto"
	"book-workshop-api/internal/interfaces/http/middleware"
	"book-workshop-api/pkg/errors"
)

// BookService 书籍服务代理
type BookService interface {
	List(ctx context.Context, cred entity.Credential) ([]*entity.PersistedBook, error)
	Get(ctx context.Context, cred entity.Credential, id string) (*entity.PersistedBook, error)
	Delete(ctx context.Context, cred entity.Credential, id string) error
}

// BookHandler 书籍处理器
type BookHandler struct {
	books BookService
}

// NewBookHandler 创建书籍处理器
func NewBookHandler(books BookService) *BookHandler {
	return &BookHandler{books: books}
}

// List 列出调用方的书
// @Summary 书籍列表
// @Tags Books
// @Produce json
// @Success 200 {object} dto.Response[dto.BookListResponse]
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/books [get]
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.books.List(c.Request.Context(), middleware.CredentialFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ToBookListResponse(books))
}

// Delete 删除书籍
// @Summary 删除书籍
// @Tags Books
// @Produce json
// @Param bid path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.DeleteBookResponse]
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/books/{bid} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	id := dto.BindBookID(c)
	if err := h.books.Delete(c.Request.Context(), middleware.CredentialFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, &dto.DeleteBookResponse{ID: id, Deleted: true})
}

// Export 导出书籍
// @Summary 导出书籍
// @Description 渲染为 Markdown 或 HTML
// @Tags Books
// @Produce text/markdown,text/html
// @Param bid path string true "书籍 ID"
// @Param format query string false "md 或 html"
// @Success 200 {string} string
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/export [get]
func (h *BookHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	book, err := h.books.Get(c.Request.Context(), middleware.CredentialFrom(c), dto.BindBookID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if book == nil {
		respondError(c, errors.New(errors.CodeBookNotFound, "book not found"))
		return
	}

	body, err := export.Render(book, format)
	if err != nil {
		respondError(c, err)
		return
	}
	disposition := mime.FormatMediaType("inline", map[string]string{"filename": "book-" + book.ID + "." + string(format)})
	if disposition != "" {
		c.Header("Content-Disposition", disposition)
	}
	c.Data(http.StatusOK, format.ContentType(), body)
}
