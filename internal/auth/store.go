package auth

import (
	"fmt"
	"sync"

	"github.com/desertthunder/soundscout/internal/shared"
)

// Keys under which the authorization flow persists its state.
const (
	KeyVerifier    = "spotify_verifier"
	KeyAccessToken = "spotify_access_token"
)

// Store is a string key-value store that outlives the redirect round-trip.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is a process-local [Store]; its contents are lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Tokens reads the stored access token without needing client settings.
type Tokens struct {
	Store Store
}

// AccessToken returns the stored token or [shared.ErrNotAuthenticated].
func (t Tokens) AccessToken() (string, error) {
	token, ok, err := t.Store.Get(KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if !ok || token == "" {
		return "", shared.ErrNotAuthenticated
	}
	return token, nil
}

// Forget deletes the stored access token and any pending verifier.
func Forget(store Store) error {
	for _, key := range []string{KeyAccessToken, KeyVerifier} {
		if err := store.Delete(key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	return nil
}
