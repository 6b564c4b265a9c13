package shop

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func (d SortDir) SQL() string {
	if strings.EqualFold(string(d), string(SortAsc)) {
		return "ASC"
	}
	return "DESC"
}

// whereBuilder accumulates predicates with positional args. Column names are
// always taken from whitelists, never from client input.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (b *whereBuilder) add(column, op string, val any) {
	b.args = append(b.args, val)
	b.clauses = append(b.clauses, fmt.Sprintf("%s %s $%d", column, op, len(b.args)))
}

func (b *whereBuilder) search(val string, columns ...string) {
	b.args = append(b.args, "%"+val+"%")
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", c, len(b.args)))
	}
	b.clauses = append(b.clauses, "("+strings.Join(parts, " OR ")+")")
}

func (b *whereBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

type OrderFilter struct {
	UserID string
	Status Status
	From   time.Time
	To     time.Time
	SortBy string
	Dir    SortDir
	Page
}

var orderSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"total":      "total",
	"status":     "status",
}

func (f OrderFilter) SortColumn() string {
	if c, ok := orderSortColumns[f.SortBy]; ok {
		return c
	}
	return "created_at"
}

func (f OrderFilter) Build() (string, []any) {
	var b whereBuilder
	if f.UserID != "" {
		b.add("user_id", "=", f.UserID)
	}
	if f.Status != "" {
		b.add("status", "=", string(f.Status))
	}
	if !f.From.IsZero() {
		b.add("created_at", ">=", f.From)
	}
	if !f.To.IsZero() {
		b.add("created_at", "<=", f.To)
	}
	return b.where(), b.args
}

type ProductFilter struct {
	Search     string
	CategoryID string
	PriceMin   float64
	PriceMax   float64
	SortBy     string
	Dir        SortDir
	Page
}

var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"created_at": "created_at",
}

func (f ProductFilter) SortColumn() string {
	if c, ok := productSortColumns[f.SortBy]; ok {
		return c
	}
	return "created_at"
}

func (f ProductFilter) Build() (string, []any) {
	var b whereBuilder
	if f.Search != "" {
		b.search(f.Search, "name", "description")
	}
	if f.CategoryID != "" {
		b.add("category_id", "=", f.CategoryID)
	}
	if f.PriceMin > 0 {
		b.add("price", ">=", f.PriceMin)
	}
	if f.PriceMax > 0 {
		b.add("price", "<=", f.PriceMax)
	}
	return b.where(), b.args
}

type UserFilter struct {
	Search string
	Role   Role
	From   time.Time
	To     time.Time
	SortBy string
	Dir    SortDir
	Page
}

var userSortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
}

func (f UserFilter) SortColumn() string {
	if c, ok := userSortColumns[f.SortBy]; ok {
		return c
	}
	return "created_at"
}

func (f UserFilter) Build() (string, []any) {
	var b whereBuilder
	if f.Search != "" {
		b.search(f.Search, "name", "email")
	}
	if f.Role != "" {
		b.add("role", "=", string(f.Role))
	}
	if !f.From.IsZero() {
		b.add("created_at", ">=", f.From)
	}
	if !f.To.IsZero() {
		b.add("created_at", "<=", f.To)
	}
	return b.where(), b.args
}
