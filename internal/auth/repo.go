package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (Account, error) {
	var account Account
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, password_hash, is_admin, active, created_at
FROM profiles WHERE lower(email)=lower($1)`, email).
		Scan(&account.ID, &account.Email, &account.FullName, &account.PasswordHash,
			&account.Admin, &account.Active, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}

var _ Repository = (*PGRepository)(nil)
