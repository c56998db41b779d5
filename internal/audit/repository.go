package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/ledger"
)

// Repository reads the movement log from PostgreSQL. Joins are LEFT so a
// movement survives its item or actor being deleted.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MovementsSince returns movements at or after the given time, newest first.
func (r *Repository) MovementsSince(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.created_at, m.item_id, COALESCE(i.name, m.item_id),
       m.user_id, COALESCE(p.full_name, m.user_id),
       m.delta, m.reason, COALESCE(m.note, '')
FROM stock_movements m
LEFT JOIN items i ON i.id = m.item_id
LEFT JOIN profiles p ON p.id = m.user_id
WHERE m.created_at >= $1
ORDER BY m.created_at DESC
LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		var reason string
		if err := rows.Scan(&entry.ID, &entry.CreatedAt, &entry.ItemID, &entry.ItemName,
			&entry.ActorID, &entry.ActorName, &entry.Delta, &reason, &entry.Note); err != nil {
			return nil, err
		}
		entry.Reason = ledger.Reason(reason)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
