package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type PostgresAccountStore struct {
	db *sql.DB
}

func NewPostgresAccountStore(db *sql.DB) (*PostgresAccountStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PostgresAccountStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresAccountStore) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY,
	username TEXT NOT NULL,
	password TEXT NOT NULL,
	roles JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_username_lower_idx ON accounts (lower(username))`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure accounts schema: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) FindAccountByUsername(ctx context.Context, username string) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Account{}, ErrAccountNotFound
	}

	var a Account
	var rolesJSON []byte
	const q = `SELECT id, username, password, roles FROM accounts WHERE lower(username) = lower($1)`
	if err := s.db.QueryRowContext(ctx, q, username).Scan(&a.ID, &a.Username, &a.Password, &rolesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("query account: %w", err)
	}
	if err := decodeRoles(rolesJSON, &a.Roles); err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *PostgresAccountStore) AccountExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("query account existence: %w", err)
	}
	return exists, nil
}

func (s *PostgresAccountStore) ListAccounts(ctx context.Context) ([]Account, error) {
	const q = `SELECT id, username, password, roles FROM accounts ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	out := make([]Account, 0)
	for rows.Next() {
		var a Account
		var rolesJSON []byte
		if err := rows.Scan(&a.ID, &a.Username, &a.Password, &rolesJSON); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if err := decodeRoles(rolesJSON, &a.Roles); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

func (s *PostgresAccountStore) PutAccount(ctx context.Context, account Account) error {
	account.Username = strings.TrimSpace(account.Username)
	if err := account.Validate(); err != nil {
		return err
	}
	if account.Roles == nil {
		account.Roles = []string{}
	}

	rolesJSON, err := json.Marshal(account.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}

	const q = `
INSERT INTO accounts (id, username, password, roles, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (id) DO UPDATE
SET username = EXCLUDED.username,
	password = EXCLUDED.password,
	roles = EXCLUDED.roles,
	updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, q, account.ID, account.Username, account.Password, rolesJSON); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

func decodeRoles(raw []byte, out *[]string) error {
	*out = []string{}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode roles: %w", err)
	}
	return nil
}
