package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination_Clamps(t *testing.T) {
	p := NewPagination(0, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)

	p = NewPagination(3, 0)
	assert.Equal(t, 20, p.Limit())
	assert.Equal(t, 40, p.Offset())
}

func TestNewPagedResult_TotalPages(t *testing.T) {
	r := NewPagedResult([]int{1, 2}, 21, NewPagination(1, 10))
	assert.Equal(t, 3, r.TotalPages)
	assert.Equal(t, int64(21), r.Total)
}

func TestNewPagedResult_NilItemsBecomeEmpty(t *testing.T) {
	r := NewPagedResult[string](nil, 0, NewPagination(1, 10))
	assert.NotNil(t, r.Items)
	assert.Zero(t, r.TotalPages)
}
