package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// TemporaryKeyConfig configures temporary super API key minting.
type TemporaryKeyConfig struct {
	// ManagementURL is the full base URL of the management surface.
	ManagementURL string

	// Username and Password are the Basic credentials used to mint.
	Username string
	Password string

	// OrganisationID is the organisation the key is minted under.
	OrganisationID string
}

// TemporaryKeyAuthenticator authenticates API-surface requests with a
// short-lived super API key minted through the management surface. The key
// is minted on first use, reused while valid, and minted again once it
// approaches expiry.
type TemporaryKeyAuthenticator struct {
	config     *TemporaryKeyConfig
	store      *KeyStore
	httpClient *http.Client
}

// NewTemporaryKeyAuthenticator creates a temporary key authenticator.
func NewTemporaryKeyAuthenticator(config *TemporaryKeyConfig) *TemporaryKeyAuthenticator {
	return &TemporaryKeyAuthenticator{
		config: config,
		store:  NewKeyStore(),
		httpClient: &http.Client{
			Timeout: constants.ShortHTTPTimeout,
		},
	}
}

// GetKey returns a usable API key, minting a fresh one when the cached key
// is missing or about to expire.
func (a *TemporaryKeyAuthenticator) GetKey(ctx context.Context) (string, error) {
	if key := a.store.Get(); key.Valid() {
		return key.Value, nil
	}

	if a.config.Username == "" || a.config.Password == "" {
		return "", mapi.ErrBasicCredentialsRequired
	}

	if a.config.OrganisationID == "" {
		return "", mapi.ErrOrganisationRequired
	}

	key, err := a.mintKey(ctx)
	if err != nil {
		return "", err
	}

	a.store.Set(key)

	return key.Value, nil
}

// SetKey stores a key obtained elsewhere.
func (a *TemporaryKeyAuthenticator) SetKey(value string, expiresAt time.Time) {
	a.store.Set(&TemporaryKey{
		Value:     value,
		ExpiresAt: expiresAt,
	})
}

// RefreshKey discards the cached key and mints a new one.
func (a *TemporaryKeyAuthenticator) RefreshKey(ctx context.Context) error {
	a.store.Clear()

	_, err := a.GetKey(ctx)

	return err
}

// Apply attaches a temporary key to the request, minting one if needed.
func (a *TemporaryKeyAuthenticator) Apply(ctx context.Context, req *http.Request) error {
	key, err := a.GetKey(ctx)
	if err != nil {
		return fmt.Errorf("obtaining temporary API key: %w", err)
	}

	setAPIKey(req, key)

	return nil
}

// mintKey requests a temporary super API key from the management surface.
func (a *TemporaryKeyAuthenticator) mintKey(ctx context.Context) (*TemporaryKey, error) {
	mintURL := strings.TrimSuffix(a.config.ManagementURL, "/") +
		"/organisations/" + a.config.OrganisationID + "/apikeys"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mintURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating mint request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(a.config.Username, a.config.Password)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &mapi.NetworkError{URL: mintURL, Err: err}
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &mapi.NetworkError{URL: mintURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapi.NewRequestError(resp.StatusCode, mintURL, body)
	}

	minted, err := mapi.DecodeObject[mapi.APIKey](body, mintURL)
	if err != nil {
		return nil, err
	}

	if minted.Key == "" {
		return nil, &mapi.MalformedResponseError{URL: mintURL, Field: "apiKey"}
	}

	expiresAt := time.Now().Add(constants.TemporaryKeyValidity)
	if minted.ValidUntil != nil {
		expiresAt = *minted.ValidUntil
	}

	return &TemporaryKey{
		Value:     minted.Key,
		ExpiresAt: expiresAt,
	}, nil
}
