package shared

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Profile is the display identity behind a session. Authentication itself
// lives outside the core; profiles only exist so movements can be attributed
// to a readable name and admin checks can be made.
type Profile struct {
	ID       string
	FullName string
	Admin    bool
}

// ProfileStore looks up profiles in PostgreSQL.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore constructs a ProfileStore.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Lookup fetches the profile for a session user ID.
func (s *ProfileStore) Lookup(ctx context.Context, id string) (Profile, error) {
	if s == nil || s.pool == nil {
		return Profile{}, errors.New("profile store not initialised")
	}
	var p Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, full_name, is_admin FROM profiles WHERE id=$1`, id).
		Scan(&p.ID, &p.FullName, &p.Admin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return Profile{}, err
	}
	return p, nil
}

// Actor converts the profile into the context value passed to core operations.
func (p Profile) Actor() Actor {
	return Actor{ID: p.ID, Name: p.FullName, Admin: p.Admin}
}
