package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h RouterHandlers, submitLimit gin.HandlerFunc) {
	// 生成任务
	generations := v1.Group("/generations")
	{
		generations.POST("", submitLimit, h.Generation.Submit)
		generations.GET("", h.Generation.History)
		generations.GET("/:tid", h.Generation.Get)
		generations.POST("/:tid/save", h.Generation.RetrySave)
	}

	// 书籍
	books := v1.Group("/books")
	{
		books.GET("", h.Book.List)
		books.DELETE("/:bid", h.Book.Delete)
		books.GET("/:bid/export", h.Book.Export)
	}
}
