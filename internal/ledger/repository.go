package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// Repository persists the movement log in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations the service needs. The
// item row is locked for the duration of the transaction so concurrent deltas
// against the same item serialize.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, itemID string) (ItemState, error)
	InsertMovement(ctx context.Context, m Movement) error
	AddItemStock(ctx context.Context, itemID string, delta int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an existing transaction so other modules can post
// movements atomically with their own writes.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// WithTx executes the callback inside a repeatable-read transaction. Begin
// and commit failures surface as storage failures; errors from the callback
// pass through untouched.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
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

func (r *txRepository) GetItemForUpdate(ctx context.Context, itemID string) (ItemState, error) {
	var state ItemState
	err := r.tx.QueryRow(ctx,
		`SELECT id, active, stock_on_hand FROM items WHERE id=$1 FOR UPDATE`, itemID).
		Scan(&state.ID, &state.Active, &state.StockOnHand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemState{}, fmt.Errorf("item %s: %w", itemID, shared.ErrNotFound)
		}
		return ItemState{}, err
	}
	return state, nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO stock_movements (id, created_at, item_id, user_id, delta, reason, note)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.CreatedAt, m.ItemID, m.ActorID, m.Delta, string(m.Reason), nullString(m.Note))
	return err
}

func (r *txRepository) AddItemStock(ctx context.Context, itemID string, delta int64) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE items SET stock_on_hand = stock_on_hand + $2 WHERE id=$1`, itemID, delta)
	return err
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
