package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// Credentials shared by the test servers and test clients.
const (
	TestAPIKey   = "test-api-key"
	TestUsername = "admin@example.com"
	TestPassword = "s3cret"
)

// NewTestClient creates a client with both surfaces authenticated against
// the given base URL.
func NewTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(&mapi.Config{
		APIEndpoint: baseURL,
		APIKey:      TestAPIKey,
		Username:    TestUsername,
		Password:    TestPassword,
	})
	require.NoError(t, err)

	return client
}

// NewAPIKeyTestClient creates a client that only holds an API key, leaving
// the management surface without credentials.
func NewAPIKeyTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(&mapi.Config{
		APIEndpoint: baseURL,
		APIKey:      TestAPIKey,
	})
	require.NoError(t, err)

	return client
}

// NewManagementTestClient creates a client that only holds Basic
// credentials, leaving the API-key surface without credentials.
func NewManagementTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(&mapi.Config{
		APIEndpoint: baseURL,
		Username:    TestUsername,
		Password:    TestPassword,
	})
	require.NoError(t, err)

	return client
}

// NewPagedHandler returns a handler that serves items in pages of pageSize
// under expectedPath. Cursors are stringified item offsets, which keeps
// them opaque to the client while letting the handler slice directly.
func NewPagedHandler[T any](t *testing.T, expectedPath string, items []T, pageSize int) http.HandlerFunc {
	t.Helper()

	return func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, expectedPath, request.URL.Path)
		assert.Equal(t, http.MethodGet, request.Method)

		start := 0

		if cursor := request.URL.Query().Get("next"); cursor != "" {
			parsed, err := strconv.Atoi(cursor)
			assert.NoError(t, err)

			start = parsed
		}

		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}

		envelope := map[string]interface{}{
			"items": items[start:end],
			"total": len(items),
		}

		if end < len(items) {
			envelope["nextCursor"] = strconv.Itoa(end)
		} else {
			envelope["nextCursor"] = nil
		}

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(envelope)
	}
}

// NewErrorHandler returns a handler that fails every request with the given
// status and server message.
func NewErrorHandler(status int, message string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		_ = json.NewEncoder(writer).Encode(map[string]string{"message": message})
	}
}

// RunListTest runs a paginated list test: items are served in pages of
// pageSize under expectedPath, and the list call must return all of them in
// server order.
func RunListTest[T any](
	t *testing.T,
	expectedPath string,
	items []T,
	pageSize int,
	itemID func(T) string,
	listCall func(*Client) ([]T, error),
) {
	t.Helper()

	server := httptest.NewServer(NewPagedHandler(t, expectedPath, items, pageSize))
	defer server.Close()

	client := NewTestClient(t, server.URL)

	result, err := listCall(client)
	require.NoError(t, err)
	require.Len(t, result, len(items))

	for i, item := range result {
		assert.Equal(t, itemID(items[i]), itemID(item))
	}
}
