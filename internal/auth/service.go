package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Every failure mode
// collapses to ErrInvalidCredentials so callers cannot probe for accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return Account{}, shared.ErrInvalidCredentials
	}
	if !account.Active {
		return Account{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Account{}, shared.ErrInvalidCredentials
	}
	return account, nil
}
