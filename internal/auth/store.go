package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// AccountStore is the persistence the credential validator and the theater
// service need from the account directory.
type AccountStore interface {
	FindAccountByUsername(ctx context.Context, username string) (Account, error)
	AccountExists(ctx context.Context, id int) (bool, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	PutAccount(ctx context.Context, account Account) error
}

// Directory is an in-memory account store. Usernames are matched
// case-insensitively.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewDirectory(accounts ...Account) (*Directory, error) {
	d := &Directory{accounts: make(map[string]Account)}
	for _, a := range accounts {
		if err := d.PutAccount(context.Background(), a); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Directory) FindAccountByUsername(_ context.Context, username string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.accounts[usernameKey(username)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (d *Directory) AccountExists(_ context.Context, id int) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, a := range d.accounts {
		if a.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (d *Directory) ListAccounts(_ context.Context) ([]Account, error) {
	d.mu.RLock()
	out := make([]Account, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, cloneAccount(a))
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) PutAccount(_ context.Context, account Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	key := usernameKey(account.Username)
	for k, existing := range d.accounts {
		if existing.ID == account.ID && k != key {
			return fmt.Errorf("%w: id %d already used by %q", ErrInvalidAccount, account.ID, existing.Username)
		}
	}
	d.accounts[key] = cloneAccount(account)
	return nil
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func cloneAccount(a Account) Account {
	a.Roles = append([]string{}, a.Roles...)
	return a
}

// SeedAccounts writes accounts into store when it holds none yet.
func SeedAccounts(ctx context.Context, store AccountStore, accounts []Account) (int, error) {
	existing, err := store.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, a := range accounts {
		if err := store.PutAccount(ctx, a); err != nil {
			return 0, fmt.Errorf("seed account %q: %w", a.Username, err)
		}
	}
	return len(accounts), nil
}
