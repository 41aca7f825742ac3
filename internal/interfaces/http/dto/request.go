// Package dto HTTP 层请求与响应结构
package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"book-workshop-api/internal/domain/repository"
)

// BindPage 读取 page 与 page_size，非法值按默认处理
func BindPage(c *gin.Context) repository.Pagination {
	return repository.NewPagination(queryInt(c, "page"), queryInt(c, "page_size"))
}

// queryInt 缺失或无法解析时返回 0
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

// BindTaskID 路径中的生成任务 ID
func BindTaskID(c *gin.Context) string {
	return c.Param("tid")
}

// BindBookID 路径中的书籍 ID
func BindBookID(c *gin.Context) string {
	return c.Param("bid")
}
