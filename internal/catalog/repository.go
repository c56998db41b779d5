package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// Repository persists items in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, name, stock_on_hand, reorder_level, reorder_qty, unit, active, created_at`

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.StockOnHand, &item.ReorderLevel,
		&item.ReorderQty, &item.Unit, &item.Active, &item.CreatedAt)
	return item, err
}

// GetItem fetches a single item by ID.
func (r *Repository) GetItem(ctx context.Context, id string) (Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, fmt.Errorf("item %s: %w", id, shared.ErrNotFound)
		}
		return Item{}, err
	}
	return item, nil
}

// ListItems returns items ordered by name. Inactive items are included only
// when requested (the admin view shows them greyed out).
func (r *Repository) ListItems(ctx context.Context, includeInactive bool) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE active ORDER BY name`
	if includeInactive {
		query = `SELECT ` + itemColumns + ` FROM items ORDER BY name`
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// InsertItem stores a new item.
func (r *Repository) InsertItem(ctx context.Context, item Item) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO items (id, name, stock_on_hand, reorder_level, reorder_qty, unit, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		item.ID, item.Name, item.StockOnHand, item.ReorderLevel, item.ReorderQty,
		item.Unit, item.Active, item.CreatedAt)
	return err
}

// UpdateItem rewrites the editable fields. Stock is deliberately absent: the
// ledger is the only writer of stock_on_hand.
func (r *Repository) UpdateItem(ctx context.Context, item Item) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE items SET name=$2, reorder_level=$3, reorder_qty=$4, unit=$5 WHERE id=$1`,
		item.ID, item.Name, item.ReorderLevel, item.ReorderQty, item.Unit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", item.ID, shared.ErrNotFound)
	}
	return nil
}

// SetActive toggles the administrative active flag.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE items SET active=$2 WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", id, shared.ErrNotFound)
	}
	return nil
}
