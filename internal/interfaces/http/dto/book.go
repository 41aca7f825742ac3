package dto

import "book-workshop-api/internal/domain/entity"

// BookListResponse 书籍列表响应
type BookListResponse struct {
	Books []*entity.PersistedBook `json:"books"`
}

// DeleteBookResponse 删除书籍响应
type DeleteBookResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// ToBookListResponse 构造书籍列表响应
func ToBookListResponse(books []*entity.PersistedBook) *BookListResponse {
	if books == nil {
		books = []*entity.PersistedBook{}
	}
	return &BookListResponse{Books: books}
}
