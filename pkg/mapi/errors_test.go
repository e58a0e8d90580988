package mapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticationError_Error(t *testing.T) {
	err := &AuthenticationError{
		StatusCode: http.StatusUnauthorized,
		URL:        "https://api.example.com/v2.0/auditevents",
		Body:       []byte(`{"message": "invalid key"}`),
	}

	assert.Equal(t, "authentication failed: status 401 from https://api.example.com/v2.0/auditevents", err.Error())
}

func TestRequestError_Error(t *testing.T) {
	t.Run("with server message", func(t *testing.T) {
		err := &RequestError{
			StatusCode: http.StatusUnprocessableEntity,
			URL:        "https://api.example.com/v2.0/projects",
			Body:       []byte(`{"message": "name already taken"}`),
			Message:    "name already taken",
		}

		assert.Equal(t, "request failed: status 422 from https://api.example.com/v2.0/projects: name already taken", err.Error())
	})

	t.Run("without server message", func(t *testing.T) {
		err := &RequestError{
			StatusCode: http.StatusBadGateway,
			URL:        "https://api.example.com/v2.0/projects",
			Body:       []byte("upstream timeout"),
		}

		assert.Contains(t, err.Error(), "status 502")
		assert.Contains(t, err.Error(), "upstream timeout")
	})
}

func TestNetworkError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &NetworkError{
		URL: "https://api.example.com/v2.0/users",
		Err: cause,
	}

	assert.Contains(t, err.Error(), "network error")
	assert.Contains(t, err.Error(), "connection refused")
	require.ErrorIs(t, err, cause)
}

func TestMalformedResponseError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *MalformedResponseError
		expected string
	}{
		{
			name: "missing field",
			err: &MalformedResponseError{
				URL:   "https://api.example.com/v2.0/users",
				Field: "items",
			},
			expected: `malformed response from https://api.example.com/v2.0/users: missing field "items"`,
		},
		{
			name: "field with decode error",
			err: &MalformedResponseError{
				URL:   "https://api.example.com/v2.0/users",
				Field: "total",
				Err:   errors.New("json: cannot unmarshal string"),
			},
			expected: `malformed response from https://api.example.com/v2.0/users: field "total": json: cannot unmarshal string`,
		},
		{
			name: "body not JSON",
			err: &MalformedResponseError{
				URL: "https://api.example.com/v2.0/users",
				Err: errors.New("invalid character '<'"),
			},
			expected: "malformed response from https://api.example.com/v2.0/users: invalid character '<'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestPaginationLimitError_Error(t *testing.T) {
	err := &PaginationLimitError{Pages: 1000, MaxPages: 1000}

	assert.Equal(t, "pagination limit exceeded: fetched 1000 pages, bound is 1000", err.Error())
}

func TestNewRequestError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantAuth   bool
		wantMsg    string
	}{
		{
			name:       "401 becomes authentication error",
			statusCode: http.StatusUnauthorized,
			body:       `{"message": "bad key"}`,
			wantAuth:   true,
		},
		{
			name:       "403 becomes authentication error",
			statusCode: http.StatusForbidden,
			body:       `{"message": "insufficient role"}`,
			wantAuth:   true,
		},
		{
			name:       "404 keeps server message",
			statusCode: http.StatusNotFound,
			body:       `{"message": "user not found"}`,
			wantMsg:    "user not found",
		},
		{
			name:       "500 with error key",
			statusCode: http.StatusInternalServerError,
			body:       `{"error": "boom"}`,
			wantMsg:    "boom",
		},
		{
			name:       "502 with non-JSON body",
			statusCode: http.StatusBadGateway,
			body:       "<html>bad gateway</html>",
			wantMsg:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRequestError(tt.statusCode, "https://api.example.com/v2.0/users", []byte(tt.body))

			if tt.wantAuth {
				authErr := &AuthenticationError{}
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, tt.statusCode, authErr.StatusCode)

				return
			}

			reqErr := &RequestError{}
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tt.statusCode, reqErr.StatusCode)
			assert.Equal(t, tt.wantMsg, reqErr.Message)
			assert.Equal(t, []byte(tt.body), reqErr.Body)
		})
	}
}

func TestIsAuthenticationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "authentication error",
			err:      &AuthenticationError{StatusCode: 401},
			expected: true,
		},
		{
			name:     "wrapped authentication error",
			err:      fmt.Errorf("listing users: %w", &AuthenticationError{StatusCode: 403}),
			expected: true,
		},
		{
			name:     "request error",
			err:      &RequestError{StatusCode: 500},
			expected: false,
		},
		{
			name:     "other error type",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAuthenticationError(tt.err))
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "404 request error",
			err:      &RequestError{StatusCode: http.StatusNotFound},
			expected: true,
		},
		{
			name:     "wrapped 404",
			err:      fmt.Errorf("fetching project: %w", &RequestError{StatusCode: http.StatusNotFound}),
			expected: true,
		},
		{
			name:     "other request error",
			err:      &RequestError{StatusCode: http.StatusConflict},
			expected: false,
		},
		{
			name:     "authentication error",
			err:      &AuthenticationError{StatusCode: 401},
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFound(tt.err))
		})
	}
}

func TestIsUnauthorizedAndForbidden(t *testing.T) {
	unauthorized := &AuthenticationError{StatusCode: http.StatusUnauthorized}
	forbidden := &AuthenticationError{StatusCode: http.StatusForbidden}

	assert.True(t, IsUnauthorized(unauthorized))
	assert.False(t, IsUnauthorized(forbidden))
	assert.True(t, IsForbidden(forbidden))
	assert.False(t, IsForbidden(unauthorized))
}

func TestClassificationHelpers(t *testing.T) {
	netErr := &NetworkError{URL: "https://api.example.com", Err: errors.New("timeout")}
	malErr := &MalformedResponseError{URL: "https://api.example.com", Field: "items"}
	limitErr := &PaginationLimitError{Pages: 10, MaxPages: 10}

	assert.True(t, IsNetworkError(fmt.Errorf("listing: %w", netErr)))
	assert.False(t, IsNetworkError(malErr))

	assert.True(t, IsMalformedResponse(fmt.Errorf("listing: %w", malErr)))
	assert.False(t, IsMalformedResponse(netErr))

	assert.True(t, IsPaginationLimitExceeded(fmt.Errorf("listing: %w", limitErr)))
	assert.False(t, IsPaginationLimitExceeded(netErr))

	assert.True(t, IsRequestError(&RequestError{StatusCode: 409}))
	assert.False(t, IsRequestError(netErr))
}

func TestParseErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "message key",
			body:     `{"message": "user not found"}`,
			expected: "user not found",
		},
		{
			name:     "error key",
			body:     `{"error": "invalid cursor"}`,
			expected: "invalid cursor",
		},
		{
			name:     "message preferred over error",
			body:     `{"message": "primary", "error": "secondary"}`,
			expected: "primary",
		},
		{
			name:     "no recognizable envelope",
			body:     `{"detail": "something"}`,
			expected: "",
		},
		{
			name:     "invalid JSON",
			body:     "<html></html>",
			expected: "",
		},
		{
			name:     "empty body",
			body:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseErrorMessage([]byte(tt.body)))
		})
	}
}
