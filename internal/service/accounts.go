package service

import (
	"context"
	"fmt"

	"github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/model"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
	"github.com/bamawebtide/ua-mybama-cas-auth/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

// AccountServiceOptions groups dependencies for AccountService.
type AccountServiceOptions struct {
	Accounts ports.AccountStore
}

// AccountService verifies local credentials for the password login form.
type AccountService struct {
	accounts ports.AccountStore
}

// NewAccountService constructs a new AccountService.
func NewAccountService(opts AccountServiceOptions) *AccountService {
	return &AccountService{accounts: opts.Accounts}
}

// VerifyLocal checks a login/password pair against the local account store.
// Unknown logins and bad passwords both return a denied error so callers
// cannot distinguish them.
func (s *AccountService) VerifyLocal(ctx context.Context, login, password string) (*model.Account, error) {
	if login == "" || password == "" {
		return nil, apperrors.Denied("invalid credentials")
	}
	acct, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Denied("invalid credentials")
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Denied("invalid credentials")
	}
	return acct, nil
}

// Find returns the account with the given login.
func (s *AccountService) Find(ctx context.Context, login string) (*model.Account, error) {
	return s.accounts.FindByLogin(ctx, login)
}
