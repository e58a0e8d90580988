// Package parlaclient provides the main entry point for creating management API clients
package parlaclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/parla-ai/mapi-client/internal/client"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// New creates a new management API client from config.
func New(config *mapi.Config) (mapi.Client, error) {
	if config == nil {
		return nil, mapi.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, mapi.ErrAPIEndpointRequired
	}

	// Normalize API endpoint
	apiEndpoint := strings.TrimSuffix(config.APIEndpoint, "/")
	if !strings.HasPrefix(apiEndpoint, "http://") && !strings.HasPrefix(apiEndpoint, "https://") {
		apiEndpoint = "https://" + apiEndpoint
	}

	parsed, err := url.Parse(apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing API endpoint: %w", err)
	}

	if parsed.Host == "" {
		return nil, mapi.ErrNoHostInURL
	}

	config.APIEndpoint = apiEndpoint

	// Use the internal client implementation
	client, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// NewWithAPIKey creates a new client with an API endpoint and deployment API key.
func NewWithAPIKey(endpoint, apiKey string) (mapi.Client, error) {
	return New(&mapi.Config{
		APIEndpoint: endpoint,
		APIKey:      apiKey,
	})
}

// NewWithPassword creates a new client using username/password authentication
// against the management surface.
func NewWithPassword(endpoint, username, password string) (mapi.Client, error) {
	return New(&mapi.Config{
		APIEndpoint: endpoint,
		Username:    username,
		Password:    password,
	})
}
