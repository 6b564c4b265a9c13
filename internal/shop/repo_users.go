package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
}

func (r *Repo) CreateUser(ctx context.Context, u *User) (*User, error) {
	u.ID = uuid.NewString()
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(id, name, email, password_hash, role)
		 VALUES ($1,$2,$3,$4,$5) RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, Invalid(FieldError{Field: "email", Message: "is already registered"})
		}
		return nil, storageErr(r.Log, "create user", err)
	}
	return u, nil
}

func (r *Repo) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id), &u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, E(KindNotFound, "user not found: %s", id)
	}
	if err != nil {
		return nil, storageErr(r.Log, "get user", err)
	}
	return &u, nil
}

func (r *Repo) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	where, args := f.Build()
	p := f.Page.Normalize()
	query := fmt.Sprintf(`SELECT `+userColumns+` FROM users%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, f.SortColumn(), f.Dir.SQL(), len(args)+1, len(args)+2)
	args = append(args, p.Limit, p.Offset())

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(r.Log, "list users", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, storageErr(r.Log, "list users: scan", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(r.Log, "list users: rows", err)
	}
	return out, nil
}
