package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-app/stockroom/internal/shared"
)

type stubRepo struct {
	accounts map[string]Account
}

func (s stubRepo) FindByEmail(_ context.Context, email string) (Account, error) {
	account, ok := s.accounts[email]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return account, nil
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewService(stubRepo{accounts: map[string]Account{
		"sam@example.com":  {ID: "u-1", Email: "sam@example.com", FullName: "Sam", PasswordHash: string(hash), Active: true, Admin: true},
		"gone@example.com": {ID: "u-2", Email: "gone@example.com", PasswordHash: string(hash), Active: false},
	}})

	account, err := svc.Authenticate(context.Background(), "sam@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "u-1", account.ID)
	require.True(t, account.Admin)

	_, err = svc.Authenticate(context.Background(), "sam@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "gone@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
