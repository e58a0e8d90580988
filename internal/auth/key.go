// Package auth implements the credential handshakes for the API and
// management surfaces: static API keys, HTTP Basic, and temporary super
// API keys minted through the management surface.
package auth

import (
	"sync"
	"time"

	"github.com/parla-ai/mapi-client/internal/constants"
)

// TemporaryKey is a minted API key together with its server-side expiry.
type TemporaryKey struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the key can still be used. Keys within the
// expiration buffer of their expiry count as invalid so a request never
// travels with a key that dies in flight.
func (k *TemporaryKey) Valid() bool {
	if k == nil || k.Value == "" {
		return false
	}

	if k.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.KeyExpirationBuffer).Before(k.ExpiresAt)
}

// KeyStore holds the current temporary key behind a mutex.
type KeyStore struct {
	mu  sync.RWMutex
	key *TemporaryKey
}

// NewKeyStore creates an empty key store.
func NewKeyStore() *KeyStore {
	return &KeyStore{}
}

// Get returns the stored key, or nil.
func (s *KeyStore) Get() *TemporaryKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.key
}

// Set replaces the stored key.
func (s *KeyStore) Set(key *TemporaryKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = key
}

// Clear removes the stored key.
func (s *KeyStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key = nil
}
