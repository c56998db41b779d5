package replenish

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// Repository persists orders and order lines in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional order operations plus the ledger
// bound to the same transaction, so a line update and its stock movement
// commit together.
type TxRepository interface {
	InsertOrder(ctx context.Context, order Order) error
	InsertOrderLine(ctx context.Context, line OrderLine) error
	GetOrderForUpdate(ctx context.Context, orderID string) (Order, error)
	AddLineReceived(ctx context.Context, orderID, itemID string, qty int64) error
	SetOrderStatus(ctx context.Context, orderID string, status OrderStatus) error
	PendingItemConflicts(ctx context.Context, itemIDs []string) ([]string, error)
	Ledger() ledger.TxRepository
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("%w: begin: %v", shared.ErrStorageFailure, err)
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", shared.ErrStorageFailure, err)
	}
	return nil
}

func (r *txRepository) Ledger() ledger.TxRepository {
	return ledger.NewTxRepository(r.tx)
}

func (r *txRepository) InsertOrder(ctx context.Context, order Order) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO orders (id, status, created_at, note) VALUES ($1,$2,$3,$4)`,
		order.ID, string(order.Status), order.CreatedAt, nullString(order.Note))
	return err
}

func (r *txRepository) InsertOrderLine(ctx context.Context, line OrderLine) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO order_lines (order_id, item_id, qty_ordered, qty_received)
VALUES ($1,$2,$3,$4)`,
		line.OrderID, line.ItemID, line.QtyOrdered, line.QtyReceived)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("order line %s/%s already exists: %w",
				line.OrderID, line.ItemID, shared.ErrConflict)
		}
	}
	return err
}

// GetOrderForUpdate locks the order row and loads its lines. Concurrent
// receives against the same order serialize here.
func (r *txRepository) GetOrderForUpdate(ctx context.Context, orderID string) (Order, error) {
	var order Order
	var note *string
	var status string
	err := r.tx.QueryRow(ctx,
		`SELECT id, status, created_at, note FROM orders WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&order.ID, &status, &order.CreatedAt, &note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("order %s: %w", orderID, shared.ErrNotFound)
		}
		return Order{}, err
	}
	order.Status = OrderStatus(status)
	if note != nil {
		order.Note = *note
	}
	order.Lines, err = scanLines(r.tx.Query(ctx, lineQuery+` WHERE l.order_id=$1 ORDER BY i.name`, orderID))
	return order, err
}

func (r *txRepository) AddLineReceived(ctx context.Context, orderID, itemID string, qty int64) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE order_lines SET qty_received = qty_received + $3
WHERE order_id=$1 AND item_id=$2 AND qty_received + $3 <= qty_ordered`,
		orderID, itemID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order line %s/%s: received quantity would exceed ordered: %w",
			orderID, itemID, shared.ErrInvalidArgument)
	}
	return nil
}

func (r *txRepository) SetOrderStatus(ctx context.Context, orderID string, status OrderStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE orders SET status=$2 WHERE id=$1`, orderID, string(status))
	return err
}

// PendingItemConflicts returns the subset of itemIDs already referenced by a
// line of a pending order. Matching lines are locked so two concurrent order
// creations for the same item cannot both pass the check.
func (r *txRepository) PendingItemConflicts(ctx context.Context, itemIDs []string) ([]string, error) {
	rows, err := r.tx.Query(ctx,
		`SELECT l.item_id FROM order_lines l
JOIN orders o ON o.id = l.order_id
WHERE o.status = 'pending' AND l.item_id = ANY($1)
FOR UPDATE OF l`, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	conflicts := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, id)
	}
	return conflicts, rows.Err()
}

const lineQuery = `SELECT l.order_id, l.item_id, COALESCE(i.name, l.item_id), l.qty_ordered, l.qty_received
FROM order_lines l
LEFT JOIN items i ON i.id = l.item_id`

func scanLines(rows pgx.Rows, err error) ([]OrderLine, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []OrderLine{}
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.OrderID, &line.ItemID, &line.ItemName,
			&line.QtyOrdered, &line.QtyReceived); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// GetOrder loads an order with its lines outside any transaction.
func (r *Repository) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var order Order
	var note *string
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT id, status, created_at, note FROM orders WHERE id=$1`, orderID).
		Scan(&order.ID, &status, &order.CreatedAt, &note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, fmt.Errorf("order %s: %w", orderID, shared.ErrNotFound)
		}
		return Order{}, err
	}
	order.Status = OrderStatus(status)
	if note != nil {
		order.Note = *note
	}
	order.Lines, err = scanLines(r.pool.Query(ctx, lineQuery+` WHERE l.order_id=$1 ORDER BY i.name`, orderID))
	return order, err
}

// ListOrders returns orders newest first, optionally filtered by status.
func (r *Repository) ListOrders(ctx context.Context, status OrderStatus) ([]Order, error) {
	query := `SELECT id, status, created_at, note FROM orders ORDER BY created_at DESC`
	args := []any{}
	if status != "" {
		query = `SELECT id, status, created_at, note FROM orders WHERE status=$1 ORDER BY created_at DESC`
		args = append(args, string(status))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []Order{}
	for rows.Next() {
		var order Order
		var note *string
		var st string
		if err := rows.Scan(&order.ID, &st, &order.CreatedAt, &note); err != nil {
			return nil, err
		}
		order.Status = OrderStatus(st)
		if note != nil {
			order.Note = *note
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines, err = scanLines(r.pool.Query(ctx,
			lineQuery+` WHERE l.order_id=$1 ORDER BY i.name`, orders[i].ID))
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// PendingItemIDs returns the set of items on any pending order.
func (r *Repository) PendingItemIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT l.item_id FROM order_lines l
JOIN orders o ON o.id = l.order_id
WHERE o.status = 'pending'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
