package shop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageNormalize(t *testing.T) {
	p := Page{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)

	p = Page{Page: -3, Limit: 1000}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.Limit)

	assert.Equal(t, 0, Page{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, Page{Page: 3, Limit: 20}.Offset())
}

func TestSortDir(t *testing.T) {
	assert.Equal(t, "ASC", SortAsc.SQL())
	assert.Equal(t, "ASC", SortDir("ASC").SQL())
	assert.Equal(t, "DESC", SortDesc.SQL())
	assert.Equal(t, "DESC", SortDir("drop table").SQL())
}

func TestOrderFilterBuild(t *testing.T) {
	where, args := OrderFilter{}.Build()
	assert.Empty(t, where)
	assert.Empty(t, args)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	where, args = OrderFilter{UserID: "u1", Status: StatusPending, From: from}.Build()
	assert.Equal(t, " WHERE user_id = $1 AND status = $2 AND created_at >= $3", where)
	assert.Equal(t, []any{"u1", "PENDING", from}, args)
}

func TestOrderFilterSortWhitelist(t *testing.T) {
	assert.Equal(t, "total", OrderFilter{SortBy: "total"}.SortColumn())
	assert.Equal(t, "created_at", OrderFilter{SortBy: "password_hash"}.SortColumn())
	assert.Equal(t, "created_at", OrderFilter{}.SortColumn())
}

func TestProductFilterBuild(t *testing.T) {
	where, args := ProductFilter{Search: "mug", PriceMax: 15}.Build()
	assert.Equal(t, " WHERE (name ILIKE $1 OR description ILIKE $1) AND price <= $2", where)
	assert.Equal(t, []any{"%mug%", 15.0}, args)
}

func TestUserFilterBuild(t *testing.T) {
	where, args := UserFilter{Role: RoleAdmin}.Build()
	assert.Equal(t, " WHERE role = $1", where)
	assert.Equal(t, []any{"ADMIN"}, args)
	assert.Equal(t, "email", UserFilter{SortBy: "email"}.SortColumn())
	assert.Equal(t, "created_at", UserFilter{SortBy: "role"}.SortColumn())
}
