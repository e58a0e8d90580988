package auth

import (
	"context"
	"net/http"

	"github.com/parla-ai/mapi-client/internal/constants"
)

// APIKeyAuthenticator authenticates requests with a static API key.
type APIKeyAuthenticator struct {
	key string
}

// NewAPIKeyAuthenticator creates an authenticator for a pre-issued API key.
func NewAPIKeyAuthenticator(key string) *APIKeyAuthenticator {
	return &APIKeyAuthenticator{key: key}
}

// Apply attaches the API key to the request.
func (a *APIKeyAuthenticator) Apply(ctx context.Context, req *http.Request) error {
	setAPIKey(req, a.key)

	return nil
}

// BasicAuthenticator authenticates requests with HTTP Basic credentials.
type BasicAuthenticator struct {
	username string
	password string
}

// NewBasicAuthenticator creates an authenticator for a username/password
// pair.
func NewBasicAuthenticator(username, password string) *BasicAuthenticator {
	return &BasicAuthenticator{username: username, password: password}
}

// Apply attaches the Basic credentials to the request.
func (a *BasicAuthenticator) Apply(ctx context.Context, req *http.Request) error {
	req.SetBasicAuth(a.username, a.password)

	return nil
}

// setAPIKey places the key in the header and the query string. The server
// accepts both; sending both matches the documented handshake.
func setAPIKey(req *http.Request, key string) {
	req.Header.Set(constants.APIKeyHeader, key)

	query := req.URL.Query()
	query.Set(constants.APIKeyQueryParam, key)
	req.URL.RawQuery = query.Encode()
}
