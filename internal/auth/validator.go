package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

type CredentialValidator struct {
	accounts AccountStore
}

func NewCredentialValidator(accounts AccountStore) (*CredentialValidator, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	return &CredentialValidator{accounts: accounts}, nil
}

// Validate returns the principal of the matching account. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (v *CredentialValidator) Validate(ctx context.Context, username, password string) (Principal, error) {
	a, err := v.accounts.FindAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, fmt.Errorf("lookup account: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.Password)) != 1 {
		return Principal{}, ErrInvalidCredentials
	}
	return a.Principal(), nil
}
