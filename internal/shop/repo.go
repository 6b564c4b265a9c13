package shop

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Repo is the Postgres-backed store. Every stock-affecting operation runs
// inside a single transaction with the touched rows locked.
type Repo struct {
	DB  *pgxpool.Pool
	Log *logrus.Logger
}

type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `id, user_id, status, total, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
}

// CreateOrder re-derives the authoritative total from current prices,
// decrements stock, and persists the order with its items, all in one
// transaction. Any failed check aborts the whole thing.
func (r *Repo) CreateOrder(ctx context.Context, userID string, items []ItemInput, claimedTotal float64) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storageErr(r.Log, "create order", err)
	}
	defer tx.Rollback(ctx)

	// Lock product rows in a stable order so concurrent carts cannot deadlock.
	sorted := make([]ItemInput, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	type line struct {
		ItemInput
		price float64
	}
	lines := make([]line, 0, len(sorted))
	var total float64
	for _, it := range sorted {
		var price float64
		var stock int
		err := tx.QueryRow(ctx, `SELECT price, stock FROM products WHERE id=$1 FOR UPDATE`, it.ProductID).
			Scan(&price, &stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, E(KindProductNotFound, "product not found: %s", it.ProductID)
		}
		if err != nil {
			return nil, storageErr(r.Log, "create order: fetch product", err)
		}
		if stock < it.Qty {
			return nil, E(KindNotEnoughStock,
				"not enough stock for product %s (requested %d, available %d)", it.ProductID, it.Qty, stock)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`,
			it.ProductID, it.Qty); err != nil {
			return nil, storageErr(r.Log, "create order: decrement stock", err)
		}
		total += price * float64(it.Qty)
		lines = append(lines, line{ItemInput: it, price: price})
	}

	if !TotalMatches(claimedTotal, total) {
		return nil, E(KindTotalPriceMismatch,
			"claimed total %.2f does not match current total %.2f", claimedTotal, total)
	}

	o := &Order{ID: uuid.NewString(), UserID: userID, Status: StatusPending, Total: total}
	err = tx.QueryRow(ctx,
		`INSERT INTO orders(id, user_id, status, total) VALUES ($1,$2,$3,$4)
		 RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.Status, o.Total).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, storageErr(r.Log, "create order: insert order", err)
	}

	for _, ln := range lines {
		item := OrderItem{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: ln.ProductID,
			Qty:       ln.Qty,
			Price:     ln.price,
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items(id, order_id, product_id, qty, price) VALUES ($1,$2,$3,$4,$5)`,
			item.ID, item.OrderID, item.ProductID, item.Qty, item.Price); err != nil {
			return nil, storageErr(r.Log, "create order: insert item", err)
		}
		o.Items = append(o.Items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr(r.Log, "create order: commit", err)
	}
	return o, nil
}

// TransitionOrder applies an admin status change. Moving into a terminal
// status from a non-terminal one puts every line item's quantity back on the
// shelf; a terminal-to-terminal call is an idempotent no-op.
func (r *Repo) TransitionOrder(ctx context.Context, id string, target Status) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storageErr(r.Log, "transition order", err)
	}
	defer tx.Rollback(ctx)

	var o Order
	err = scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, E(KindNotFound, "order not found: %s", id)
	}
	if err != nil {
		return nil, storageErr(r.Log, "transition order: fetch", err)
	}

	items, err := r.loadItems(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	if o.Status.Terminal() && target.Terminal() {
		// stock already restored once; repeating must not double-credit
		return &o, nil
	}
	if target != o.Status && !o.Status.CanTransition(target) {
		return nil, E(KindBadRequest, "order in status %s cannot change to %s", o.Status, target)
	}

	if target.Terminal() && !o.Status.Terminal() {
		if err := restoreStock(ctx, tx, o.Items); err != nil {
			return nil, storageErr(r.Log, "transition order: restore stock", err)
		}
	}

	err = tx.QueryRow(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING updated_at`,
		o.ID, target).Scan(&o.UpdatedAt)
	if err != nil {
		return nil, storageErr(r.Log, "transition order: update", err)
	}
	o.Status = target

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr(r.Log, "transition order: commit", err)
	}
	return &o, nil
}

// CancelOwnedOrder is the customer path: the lookup filters by owner, so a
// foreign order is indistinguishable from a missing one. That masking is
// deliberate.
func (r *Repo) CancelOwnedOrder(ctx context.Context, userID, id string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storageErr(r.Log, "cancel order", err)
	}
	defer tx.Rollback(ctx)

	var o Order
	err = scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2 FOR UPDATE`, id, userID), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, E(KindOrderNotFound, "order not found: %s", id)
	}
	if err != nil {
		return nil, storageErr(r.Log, "cancel order: fetch", err)
	}

	if !o.Status.Cancellable() {
		return nil, E(KindBadRequest, "order in status %s can no longer be cancelled", o.Status)
	}

	items, err := r.loadItems(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	if err := restoreStock(ctx, tx, o.Items); err != nil {
		return nil, storageErr(r.Log, "cancel order: restore stock", err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING updated_at`,
		o.ID, StatusCancelled).Scan(&o.UpdatedAt)
	if err != nil {
		return nil, storageErr(r.Log, "cancel order: update", err)
	}
	o.Status = StatusCancelled

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr(r.Log, "cancel order: commit", err)
	}
	return &o, nil
}

// DeleteOrder hard-deletes an order and its items. Stock is not restored
// here; cancelling first is the way to put quantities back.
func (r *Repo) DeleteOrder(ctx context.Context, id string) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storageErr(r.Log, "delete order", err)
	}
	defer tx.Rollback(ctx)

	var o Order
	err = scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, E(KindNotFound, "order not found: %s", id)
	}
	if err != nil {
		return nil, storageErr(r.Log, "delete order: fetch", err)
	}

	items, err := r.loadItems(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
		return nil, storageErr(r.Log, "delete order: items", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, o.ID); err != nil {
		return nil, storageErr(r.Log, "delete order: order", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageErr(r.Log, "delete order: commit", err)
	}
	return &o, nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, KindNotFound, id)
}

// GetOwnedOrder filters by owner; misses and foreign orders look the same.
func (r *Repo) GetOwnedOrder(ctx context.Context, userID, id string) (*Order, error) {
	return r.getOrder(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1 AND user_id=$2`, KindOrderNotFound, id, userID)
}

func (r *Repo) getOrder(ctx context.Context, query string, missKind Kind, args ...any) (*Order, error) {
	var o Order
	err := scanOrder(r.DB.QueryRow(ctx, query, args...), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, E(missKind, "order not found")
	}
	if err != nil {
		return nil, storageErr(r.Log, "get order", err)
	}
	items, err := r.loadItems(ctx, r.DB, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *Repo) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	where, args := f.Build()
	p := f.Page.Normalize()
	query := fmt.Sprintf(`SELECT `+orderColumns+` FROM orders%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, f.SortColumn(), f.Dir.SQL(), len(args)+1, len(args)+2)
	args = append(args, p.Limit, p.Offset())

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(r.Log, "list orders", err)
	}
	defer rows.Close()

	orders := []Order{}
	ids := []string{}
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, storageErr(r.Log, "list orders: scan", err)
		}
		o.Items = []OrderItem{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(r.Log, "list orders: rows", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemRows, err := r.DB.Query(ctx,
		`SELECT id, order_id, product_id, qty, price FROM order_items WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return nil, storageErr(r.Log, "list orders: items", err)
	}
	defer itemRows.Close()

	byOrder := make(map[string][]OrderItem, len(orders))
	for itemRows.Next() {
		var it OrderItem
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.Price); err != nil {
			return nil, storageErr(r.Log, "list orders: scan item", err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, storageErr(r.Log, "list orders: item rows", err)
	}
	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}
	return orders, nil
}

func (r *Repo) loadItems(ctx context.Context, q pgxQuerier, orderID string) ([]OrderItem, error) {
	rows, err := q.Query(ctx,
		`SELECT id, order_id, product_id, qty, price FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, storageErr(r.Log, "load items", err)
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.Price); err != nil {
			return nil, storageErr(r.Log, "load items: scan", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(r.Log, "load items: rows", err)
	}
	return items, nil
}

// restoreStock credits quantities back in sorted product order, the same
// order CreateOrder locks in, so a restock cannot deadlock with a checkout.
func restoreStock(ctx context.Context, tx pgx.Tx, items []OrderItem) error {
	for _, it := range sortedByProduct(items) {
		if _, err := tx.Exec(ctx,
			`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`,
			it.ProductID, it.Qty); err != nil {
			return err
		}
	}
	return nil
}

func sortedByProduct(items []OrderItem) []OrderItem {
	out := make([]OrderItem, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
