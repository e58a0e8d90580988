package mapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrDeprecatedClientConstructor = errors.New("use github.com/parla-ai/mapi-client/pkg/parlaclient.New to create a client")
)

// UsersClient provides access to user records.
type UsersClient interface {
	List(ctx context.Context, params *QueryParams) ([]User, error)
	ListPage(ctx context.Context, params *QueryParams) (*UserList, error)
	Get(ctx context.Context, userID string) (*User, error)
	ListAdmins(ctx context.Context, progress ProgressFunc) ([]User, error)
	AdminIDs(ctx context.Context, progress ProgressFunc) ([]string, error)
	DeprecatePassword(ctx context.Context, userID string) error
}

// OrganisationsClient provides access to organisation records.
type OrganisationsClient interface {
	List(ctx context.Context, params *QueryParams) ([]Organisation, error)
	ListPage(ctx context.Context, params *QueryParams) (*OrganisationList, error)
	CreateAPIKey(ctx context.Context, organisationID string) (*APIKey, error)
}

// AuditEventsClient provides access to the audit trail.
type AuditEventsClient interface {
	List(ctx context.Context, params *QueryParams) ([]AuditEvent, error)
	ListPage(ctx context.Context, params *QueryParams) (*AuditEventList, error)
	Get(ctx context.Context, eventID string) (*AuditEvent, error)
}

// ProjectsClient provides access to project records.
type ProjectsClient interface {
	List(ctx context.Context, params *QueryParams) ([]Project, error)
	ListPage(ctx context.Context, params *QueryParams) (*ProjectList, error)
	Get(ctx context.Context, projectID string) (*Project, error)
	Delete(ctx context.Context, projectID string) error
}

// DirectoryClients provides access to user and organisation clients.
type DirectoryClients interface {
	Users() UsersClient
	Organisations() OrganisationsClient
}

// PlatformClients provides access to project and audit resource clients.
type PlatformClients interface {
	Projects() ProjectsClient
	AuditEvents() AuditEventsClient
}

// ResourceClients provides access to all resource-specific clients.
type ResourceClients interface {
	// Composite interfaces for resource groups
	DirectoryClients
	PlatformClients
}

// RawClient issues requests against documented paths that have no typed
// wrapper yet. Paths are relative to the API-key surface base path and the
// response body is returned as raw JSON.
type RawClient interface {
	Get(ctx context.Context, path string, params *QueryParams) (json.RawMessage, error)
	Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

type Client interface {
	// Composite interfaces for related resource groups
	ResourceClients
	RawClient
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a mapi.Client.
//
// # Authentication precedence
//
// The following precedence is applied by the concrete client implementation
// (see pkg/parlaclient and internal/client):
//  1. APIKey: if set, API-key routes attach it as the X-API-Key header and
//     the api_key query parameter.
//  2. Username/Password: management routes use standard HTTP Basic auth.
//     When OrganisationID is also set, API-key routes are served by minting
//     a short-lived super API key through the management surface and caching
//     it until shortly before expiry.
//  3. Neither: parlaclient.New fails with ErrMissingCredentials. The client
//     never sends unauthenticated requests.
//
// A route whose surface has no usable credentials fails with
// ErrAPIKeyRequired or ErrBasicCredentialsRequired rather than reaching the
// network.
//
// # Timeouts, retries, and TLS
//
// Per-request deadlines should generally be controlled via the context
// passed to client methods; HTTPTimeout caps any single request. Requests
// are never retried unless RetryMax is set above zero, in which case only
// connection errors, 429s, and 5xx responses are retried with backoff
// between RetryWaitMin and RetryWaitMax. SkipTLSVerify is honored only when
// the environment variable MAPI_DEV_MODE is set to "true" or "1"; do not
// use it in production.
type Config struct {
	// Required fields
	// APIEndpoint: base URL for the management API
	// (e.g., "https://api.parla.example.com"). parlaclient.New normalizes
	// this value by trimming a trailing slash and adding "https://" if no
	// scheme is present.
	APIEndpoint string

	// Authentication options (provide at least one)
	// APIKey: deployment API key for the v2.0 surface.
	APIKey string
	// Username: management account username for HTTP Basic auth.
	Username string
	// Password: management account password used with Username.
	Password string
	// OrganisationID: organisation used to mint temporary super API keys
	// when only Basic credentials are configured. Requires the server-side
	// super-key feature flag.
	OrganisationID string

	// Optional configurations
	// APIBasePath: path prefix for API-key routes. Defaults to "v2.0".
	APIBasePath string
	// ManagementBasePath: path prefix for Basic-auth management routes.
	// Defaults to "new/management/v2.0".
	ManagementBasePath string
	// PageFields: per-deployment pagination field and parameter names.
	// Zero-value fields fall back to the documented defaults.
	PageFields PageFields
	// HTTPTimeout: cap on a single HTTP request. Defaults to 30 seconds.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures (>=500,
	// 429, and connection errors). The default of 0 disables retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMax time.Duration
	// Debug: enables verbose HTTP request/response logging when a Logger is
	// provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// SkipTLSVerify: if true, TLS verification is skipped, and only when
	// MAPI_DEV_MODE is set. Intended for local development.
	SkipTLSVerify bool
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// Cache: optional response cache configuration. Nil disables caching.
	Cache *CacheConfig
}

// NewClient creates a new management API client
// Deprecated: Use github.com/parla-ai/mapi-client/pkg/parlaclient.New instead.
func NewClient(config *Config) (Client, error) {
	return nil, ErrDeprecatedClientConstructor
}
