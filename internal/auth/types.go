package auth

import (
	"fmt"
	"strings"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Principal is the identity reconstructed from the session cookie on every
// request. It is never stored server-side.
type Principal struct {
	ID       int      `json:"id"`
	Username string   `json:"userName"`
	Roles    []string `json:"roles"`
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p Principal) clone() Principal {
	p.Roles = append([]string{}, p.Roles...)
	return p
}

// Account is an entry of the credential directory.
type Account struct {
	ID       int      `json:"id"`
	Username string   `json:"username"`
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles"`
}

func (a Account) Principal() Principal {
	return Principal{
		ID:       a.ID,
		Username: a.Username,
		Roles:    append([]string{}, a.Roles...),
	}
}

// Validate rejects accounts whose fields could not survive a round trip
// through the session cookie.
func (a Account) Validate() error {
	if a.ID <= 0 {
		return fmt.Errorf("%w: id must be > 0", ErrInvalidAccount)
	}
	if strings.TrimSpace(a.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidAccount)
	}
	if strings.Contains(a.Username, fieldSep) {
		return fmt.Errorf("%w: username must not contain %q", ErrInvalidAccount, fieldSep)
	}
	if a.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidAccount)
	}
	for _, r := range a.Roles {
		if err := validateRoleName(r); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAccount, err)
		}
	}
	return nil
}

func validateRoleName(role string) error {
	if strings.TrimSpace(role) == "" {
		return fmt.Errorf("role name must not be blank")
	}
	if strings.ContainsAny(role, fieldSep+roleSep) {
		return fmt.Errorf("role %q must not contain %q or %q", role, fieldSep, roleSep)
	}
	return nil
}

// DefaultAccounts is the seed directory used when no account store is
// configured.
func DefaultAccounts() []Account {
	return []Account{
		{ID: 1, Username: "galkadi", Password: "Test123!", Roles: []string{RoleAdmin}},
		{ID: 2, Username: "bob", Password: "Test123!", Roles: []string{RoleUser}},
		{ID: 3, Username: "sue", Password: "Test123!", Roles: []string{RoleUser}},
	}
}
