package commands

import (
	"fmt"
	"sync"
	"time"
)

// ConfigPersister implements the auth.ConfigPersister interface, writing
// minted temporary keys back to the CLI config file.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateTemporaryKey updates the temporary key and related metadata in the
// config. The key is only persisted when the configured endpoint still
// matches the domain it was minted for.
func (p *ConfigPersister) UpdateTemporaryKey(apiDomain, key string, expiresAt time.Time) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()

	if config.API == "" || extractDomainFromEndpoint(config.API) != apiDomain {
		return fmt.Errorf("endpoint for domain '%s': %w", apiDomain, ErrNoEndpointConfigured)
	}

	config.TemporaryKey = key
	if !expiresAt.IsZero() {
		config.TemporaryKeyExpiresAt = &expiresAt
	}

	now := time.Now()
	config.LastRefreshed = &now

	return saveConfigStruct(config)
}
