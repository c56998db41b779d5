package auth

import "time"

// Account is a sign-in capable profile row.
type Account struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Admin        bool
	Active       bool
	CreatedAt    time.Time
}
