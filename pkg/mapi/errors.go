package mapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// AuthenticationError is returned when the server rejects the supplied
// credentials with a 401 or 403.
type AuthenticationError struct {
	StatusCode int
	URL        string
	Body       []byte
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: status %d from %s", e.StatusCode, e.URL)
}

// RequestError is returned for any other non-2xx response. It carries the
// status code and the raw response body; Message holds the server-provided
// message when the body contained one.
type RequestError struct {
	StatusCode int
	URL        string
	Body       []byte
	Message    string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed: status %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}

	return fmt.Sprintf("request failed: status %d from %s: %s", e.StatusCode, e.URL, string(e.Body))
}

// NetworkError is returned when the request never produced an HTTP response:
// DNS failure, connection refused, timeout.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a response body is not valid JSON
// or lacks an expected field.
type MalformedResponseError struct {
	URL   string
	Field string
	Err   error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("malformed response from %s: field %q: %v", e.URL, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("malformed response from %s: missing field %q", e.URL, e.Field)
	default:
		return fmt.Sprintf("malformed response from %s: %v", e.URL, e.Err)
	}
}

// Unwrap returns the underlying decode error, if any.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// PaginationLimitError is returned when a pagination loop reaches its
// configured page bound before the server signals a terminal page.
type PaginationLimitError struct {
	Pages    int
	MaxPages int
}

// Error implements the error interface.
func (e *PaginationLimitError) Error() string {
	return fmt.Sprintf("pagination limit exceeded: fetched %d pages, bound is %d", e.Pages, e.MaxPages)
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired           = errors.New("config is required")
	ErrAPIEndpointRequired      = errors.New("API endpoint is required")
	ErrMissingCredentials       = errors.New("no credentials configured")
	ErrAPIKeyRequired           = errors.New("API key credentials required for this endpoint")
	ErrBasicCredentialsRequired = errors.New("management credentials required for this endpoint")
	ErrOrganisationRequired     = errors.New("organisation ID required to mint temporary API keys")
	ErrNoHostInURL              = errors.New("no host specified in URL")
	ErrSkipTLSOnlyInDev         = errors.New("skipTLS is only allowed in development environments")
	ErrNoMoreItems              = errors.New("no more items")
	ErrCircuitBreakerOpen       = errors.New("circuit breaker is open")
	ErrUnknownConfigKey         = errors.New("unknown configuration key")
	ErrNilClient                = errors.New("client is nil")
)

// IsAuthenticationError checks if the error is an authentication failure.
func IsAuthenticationError(err error) bool {
	authErr := &AuthenticationError{}

	return errors.As(err, &authErr)
}

// IsRequestError checks if the error is a non-2xx API response.
func IsRequestError(err error) bool {
	reqErr := &RequestError{}

	return errors.As(err, &reqErr)
}

// IsNetworkError checks if the error is a transport-level failure.
func IsNetworkError(err error) bool {
	netErr := &NetworkError{}

	return errors.As(err, &netErr)
}

// IsMalformedResponse checks if the error is a malformed response.
func IsMalformedResponse(err error) bool {
	malErr := &MalformedResponseError{}

	return errors.As(err, &malErr)
}

// IsPaginationLimitExceeded checks if the error is a pagination bound hit.
func IsPaginationLimitExceeded(err error) bool {
	limitErr := &PaginationLimitError{}

	return errors.As(err, &limitErr)
}

// IsNotFound checks if the error is a not found response.
func IsNotFound(err error) bool {
	reqErr := &RequestError{}
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == http.StatusNotFound
	}

	return false
}

// IsUnauthorized checks if the error is a 401 rejection.
func IsUnauthorized(err error) bool {
	authErr := &AuthenticationError{}
	if errors.As(err, &authErr) {
		return authErr.StatusCode == http.StatusUnauthorized
	}

	return false
}

// IsForbidden checks if the error is a 403 rejection.
func IsForbidden(err error) bool {
	authErr := &AuthenticationError{}
	if errors.As(err, &authErr) {
		return authErr.StatusCode == http.StatusForbidden
	}

	return false
}

// errorBody is the error envelope some deployments return.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ParseErrorMessage extracts a human-readable message from an error response
// body. Returns the empty string when the body has no recognizable envelope.
func ParseErrorMessage(data []byte) string {
	var body errorBody

	err := json.Unmarshal(data, &body)
	if err != nil {
		return ""
	}

	if body.Message != "" {
		return body.Message
	}

	return body.Error
}

// NewRequestError builds the error for a non-2xx response, classifying
// 401/403 as AuthenticationError.
func NewRequestError(statusCode int, url string, body []byte) error {
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return &AuthenticationError{
			StatusCode: statusCode,
			URL:        url,
			Body:       body,
		}
	}

	return &RequestError{
		StatusCode: statusCode,
		URL:        url,
		Body:       body,
		Message:    ParseErrorMessage(body),
	}
}
