package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, description, price, stock, category_id, created_at, updated_at`

func scanProduct(row pgx.Row, p *Product) error {
	var categoryID *string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&categoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	if categoryID != nil {
		p.CategoryID = *categoryID
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *Repo) CreateProduct(ctx context.Context, p *Product) (*Product, error) {
	p.ID = uuid.NewString()
	err := r.DB.QueryRow(ctx,
		`INSERT INTO products(id, name, description, price, stock, category_id)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, nullable(p.CategoryID)).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, storageErr(r.Log, "create product", err)
	}
	return p, nil
}

// ProductUpdate carries the fields an admin may change; nil means untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	CategoryID  *string
}

func (r *Repo) UpdateProduct(ctx context.Context, id string, upd ProductUpdate) (*Product, error) {
	set := []string{}
	args := []any{}
	add := func(column string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.Stock != nil {
		add("stock", *upd.Stock)
	}
	if upd.CategoryID != nil {
		add("category_id", nullable(*upd.CategoryID))
	}
	if len(set) == 0 {
		return r.GetProduct(ctx, id)
	}
	set = append(set, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d RETURNING `+productColumns,
		strings.Join(set, ", "), len(args))

	var p Product
	err := scanProduct(r.DB.QueryRow(ctx, query, args...), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, E(KindProductNotFound, "product not found: %s", id)
	}
	if err != nil {
		return nil, storageErr(r.Log, "update product", err)
	}
	return &p, nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id string) error {
	var deleted string
	err := r.DB.QueryRow(ctx, `DELETE FROM products WHERE id=$1 RETURNING id`, id).Scan(&deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return E(KindProductNotFound, "product not found: %s", id)
	}
	if err != nil {
		return storageErr(r.Log, "delete product", err)
	}
	return nil
}

func (r *Repo) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, E(KindProductNotFound, "product not found: %s", id)
	}
	if err != nil {
		return nil, storageErr(r.Log, "get product", err)
	}
	return &p, nil
}

func (r *Repo) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	where, args := f.Build()
	p := f.Page.Normalize()
	query := fmt.Sprintf(`SELECT `+productColumns+` FROM products%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, f.SortColumn(), f.Dir.SQL(), len(args)+1, len(args)+2)
	args = append(args, p.Limit, p.Offset())

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(r.Log, "list products", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		var pr Product
		if err := scanProduct(rows, &pr); err != nil {
			return nil, storageErr(r.Log, "list products: scan", err)
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(r.Log, "list products: rows", err)
	}
	return out, nil
}

func (r *Repo) CreateCategory(ctx context.Context, name string) (*Category, error) {
	c := &Category{ID: uuid.NewString(), Name: name}
	if _, err := r.DB.Exec(ctx,
		`INSERT INTO categories(id, name) VALUES ($1,$2)`, c.ID, c.Name); err != nil {
		return nil, storageErr(r.Log, "create category", err)
	}
	return c, nil
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, storageErr(r.Log, "list categories", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, storageErr(r.Log, "list categories: scan", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(r.Log, "list categories: rows", err)
	}
	return out, nil
}
