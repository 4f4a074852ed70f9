package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileAccountStore is a Directory persisted as a JSON array.
type FileAccountStore struct {
	*Directory
	path string
}

func NewFileAccountStore(path string) (*FileAccountStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("account state file path is required")
	}

	dir, err := NewDirectory()
	if err != nil {
		return nil, err
	}
	s := &FileAccountStore{Directory: dir, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileAccountStore) PutAccount(ctx context.Context, account Account) error {
	if err := s.Directory.PutAccount(ctx, account); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *FileAccountStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read account store file: %w", err)
	}
	if len(b) == 0 {
		return nil
	}

	var decoded []Account
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("decode account store file: %w", err)
	}
	for _, a := range decoded {
		if err := s.Directory.PutAccount(context.Background(), a); err != nil {
			return fmt.Errorf("load account %q: %w", a.Username, err)
		}
	}
	return nil
}

func (s *FileAccountStore) persist(ctx context.Context) error {
	out, err := s.Directory.ListAccounts(ctx)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode account store file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir account store dir: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write account store file: %w", err)
	}
	return nil
}
