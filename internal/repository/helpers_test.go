package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortColumnAllowList(t *testing.T) {
	allowed := map[string]string{"name": "s.full_name", "created_at": "s.created_at"}

	assert.Equal(t, "s.full_name", sortColumn("name", allowed, "s.created_at"))
	assert.Equal(t, "s.created_at", sortColumn("", allowed, "s.created_at"))
	assert.Equal(t, "s.created_at", sortColumn("full_name; DROP TABLE students", allowed, "s.created_at"))
}

func TestSortOrder(t *testing.T) {
	assert.Equal(t, "ASC", sortOrder("asc"))
	assert.Equal(t, "DESC", sortOrder("desc"))
	assert.Equal(t, "DESC", sortOrder(""))
	assert.Equal(t, "DESC", sortOrder("sideways"))
}

func TestPageWindow(t *testing.T) {
	limit, offset := pageWindow(1, 20)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageWindow(3, 50)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 100, offset)

	limit, offset = pageWindow(0, 0)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageWindow(2, 500)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 20, offset)
}
