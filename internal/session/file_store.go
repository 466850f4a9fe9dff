package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists tokens to a JSON file readable only by the current user, so a
// login survives between CLI invocations.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	tokens Tokens
}

// OpenFileStore loads the store at path. A missing file yields an empty session.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path is empty")
	}

	s := &FileStore{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file %s: %w", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.tokens); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the current tokens.
func (s *FileStore) Get() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// Set replaces the tokens and writes them to disk.
func (s *FileStore) Set(tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tokens.Empty() {
		s.tokens = Tokens{}
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	s.tokens = tokens
	return nil
}

// Clear forgets both tokens and removes the file.
func (s *FileStore) Clear() error {
	return s.Set(Tokens{})
}
