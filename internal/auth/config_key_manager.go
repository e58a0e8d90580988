package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// ConfigPersister defines the interface for persisting minted keys.
type ConfigPersister interface {
	UpdateTemporaryKey(apiDomain, key string, expiresAt time.Time) error
}

// ConfigKeyManager wraps TemporaryKeyAuthenticator and persists minted keys
// to configuration, so CLI runs inside a key's validity window reuse it
// instead of minting a new one.
type ConfigKeyManager struct {
	authenticator *TemporaryKeyAuthenticator
	persister     ConfigPersister
	apiDomain     string
	mutex         sync.RWMutex
	lastValue     string
	lastExpiry    time.Time
}

// NewConfigKeyManager creates a config-persisting key manager. A non-empty
// initial key seeds the cache, typically from a previous run.
func NewConfigKeyManager(config *TemporaryKeyConfig, persister ConfigPersister, apiDomain, initialKey string, initialExpiry time.Time) *ConfigKeyManager {
	authenticator := NewTemporaryKeyAuthenticator(config)

	if initialKey != "" {
		authenticator.SetKey(initialKey, initialExpiry)
	}

	return &ConfigKeyManager{
		authenticator: authenticator,
		persister:     persister,
		apiDomain:     apiDomain,
		lastValue:     initialKey,
		lastExpiry:    initialExpiry,
	}
}

// GetKey returns a valid API key, minting and persisting a fresh one when
// needed.
func (m *ConfigKeyManager) GetKey(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	key, err := m.authenticator.GetKey(ctx)
	if err != nil {
		return "", err
	}

	m.persistIfChanged()

	return key, nil
}

// RefreshKey forces a fresh mint and persists the result.
func (m *ConfigKeyManager) RefreshKey(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.authenticator.RefreshKey(ctx)
	if err != nil {
		return err
	}

	m.persistIfChanged()

	return nil
}

// SetKey manually sets the key.
func (m *ConfigKeyManager) SetKey(key string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.authenticator.SetKey(key, expiresAt)
	m.lastValue = key
	m.lastExpiry = expiresAt
}

// Apply attaches a valid key to the request.
func (m *ConfigKeyManager) Apply(ctx context.Context, req *http.Request) error {
	key, err := m.GetKey(ctx)
	if err != nil {
		return fmt.Errorf("obtaining temporary API key: %w", err)
	}

	setAPIKey(req, key)

	return nil
}

// IsKeyExpiringSoon returns true if the key expires within the given duration.
func (m *ConfigKeyManager) IsKeyExpiringSoon(within time.Duration) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	key := m.authenticator.store.Get()
	if key == nil {
		return true
	}

	return time.Now().Add(within).After(key.ExpiresAt)
}

// GetKeyExpiry returns the current key's expiration time.
func (m *ConfigKeyManager) GetKeyExpiry() time.Time {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	key := m.authenticator.store.Get()
	if key == nil {
		return time.Time{}
	}

	return key.ExpiresAt
}

// persistIfChanged saves the cached key when it differs from the last
// persisted one. Persistence failures are warnings; the request proceeds.
// Callers must hold the write lock.
func (m *ConfigKeyManager) persistIfChanged() {
	current := m.authenticator.store.Get()
	if current == nil {
		return
	}

	if current.Value == m.lastValue && current.ExpiresAt.Equal(m.lastExpiry) {
		return
	}

	m.lastValue = current.Value
	m.lastExpiry = current.ExpiresAt

	if m.persister == nil {
		return
	}

	err := m.persister.UpdateTemporaryKey(m.apiDomain, current.Value, current.ExpiresAt)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist temporary key: %v\n", err)
	}
}
