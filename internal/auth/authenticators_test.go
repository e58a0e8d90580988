package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parla-ai/mapi-client/internal/auth"
)

func TestAPIKeyAuthenticator_Apply(t *testing.T) {
	t.Parallel()

	authenticator := auth.NewAPIKeyAuthenticator("test-key")

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "https://api.example.com/v2.0/users?limit=10", nil)
	require.NoError(t, err)

	err = authenticator.Apply(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "test-key", req.Header.Get("X-API-Key"))
	assert.Equal(t, "test-key", req.URL.Query().Get("api_key"))

	// Existing query parameters survive
	assert.Equal(t, "10", req.URL.Query().Get("limit"))
}

func TestBasicAuthenticator_Apply(t *testing.T) {
	t.Parallel()

	authenticator := auth.NewBasicAuthenticator("admin@example.com", "s3cret")

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "https://api.example.com/new/management/v2.0/users", nil)
	require.NoError(t, err)

	err = authenticator.Apply(context.Background(), req)
	require.NoError(t, err)

	username, password, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", username)
	assert.Equal(t, "s3cret", password)
}
