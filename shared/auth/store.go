package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists the single credential token in durable local storage: one
// file, owner-readable only.
type Store struct {
	path string
}

// NewStore returns a store writing to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted token. A missing file is not an error; it simply
// means no credential is stored.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token, creating parent directories as needed.
func (s *Store) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an absent token is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}
