// Package session holds the admin's access and refresh tokens and decides when they
// must be refreshed.
package session

import (
	"sync"
)

// Tokens is the credential pair issued by the backend.
type Tokens struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Empty reports whether neither token is present.
func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Store keeps the current tokens. Implementations must be safe for concurrent use;
// every authenticated request reads from the same Store.
type Store interface {
	Get() Tokens
	Set(tokens Tokens) error
	Clear() error
}

// MemoryStore keeps tokens for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens Tokens
}

// NewMemoryStore creates a MemoryStore seeded with tokens.
func NewMemoryStore(tokens Tokens) *MemoryStore {
	return &MemoryStore{tokens: tokens}
}

// Get returns the current tokens.
func (s *MemoryStore) Get() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// Set replaces the tokens.
func (s *MemoryStore) Set(tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	return nil
}

// Clear forgets both tokens.
func (s *MemoryStore) Clear() error {
	return s.Set(Tokens{})
}
