// Package repository 定义生成任务与历史的存储接口
package repository

const (
	// DefaultPageSize 未指定时的每页条数
	DefaultPageSize = 20
	// MaxPageSize 单页上限
	MaxPageSize = 100
)

// Pagination 分页参数，页码从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 把越界的页码与页大小收敛到合法范围
func NewPagination(page, pageSize int) Pagination {
	page = max(page, 1)
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// Offset 跳过的条数
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit 本页条数
func (p Pagination) Limit() int {
	return p.PageSize
}

// PagedResult 一页结果；Items 为空时序列化为 []
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedResult 组装分页结果
func NewPagedResult[T any](items []T, total int64, p Pagination) *PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PageSize > 0 {
		pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return &PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pages,
	}
}
