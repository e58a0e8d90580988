package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Requests are not retried unless a caller opts in.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// OptInRetryMax is the retry count used when retries are requested
	// without an explicit limit.
	OptInRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// API route prefixes. Both are per-deployment configuration; these are the
// documented defaults.
const (
	// DefaultAPIBasePath prefixes API-key authenticated routes.
	DefaultAPIBasePath = "v2.0"

	// DefaultManagementBasePath prefixes Basic-auth management routes.
	DefaultManagementBasePath = "new/management/v2.0"
)

// Authentication wire names. The server accepts the API key in a header and
// as a query parameter; both are sent.
const (
	// APIKeyHeader carries the API key.
	APIKeyHeader = "X-API-Key"

	// APIKeyQueryParam carries the API key in the query string.
	APIKeyQueryParam = "api_key"
)

// Client identity.
const (
	// DefaultUserAgent identifies the client to the API.
	DefaultUserAgent = "mapi-client/1.0"
)

// Pagination wire defaults. Field names vary per deployment and are
// overridable through configuration.
const (
	// DefaultItemsField is the envelope key holding the item array.
	DefaultItemsField = "items"

	// DefaultNextCursorField is the envelope key holding the next cursor.
	DefaultNextCursorField = "nextCursor"

	// DefaultPrevCursorField is the envelope key holding the previous cursor.
	DefaultPrevCursorField = "previousCursor"

	// DefaultTotalField is the envelope key holding the total item count.
	DefaultTotalField = "total"

	// DefaultNextParam is the query parameter carrying the cursor.
	DefaultNextParam = "next"

	// DefaultOffsetParam is the query parameter carrying the offset.
	DefaultOffsetParam = "offset"

	// DefaultLimitParam is the query parameter carrying the page size.
	DefaultLimitParam = "limit"
)

// Pagination and display limits.
const (
	// DefaultPageSize is the server's default number of items per page.
	DefaultPageSize = 25

	// SmallPageSize is used for demonstrations or small lists.
	SmallPageSize = 5

	// DefaultMaxPages bounds pagination loops against misbehaving servers.
	DefaultMaxPages = 1000

	// StreamBufferSize is the channel buffer used when streaming pages.
	StreamBufferSize = 10
)

// Temporary API key lifetimes.
const (
	// TemporaryKeyValidity is the server-side lifetime of a minted super
	// API key.
	TemporaryKeyValidity = 15 * time.Minute

	// KeyExpirationBuffer is the buffer time before key expiration.
	KeyExpirationBuffer = 30 * time.Second
)

// Roles.
const (
	// AdminRole marks administrator accounts in a user's role list.
	AdminRole = "admin"
)

// State and status constants.
const (
	// StatusOpen indicates an open state.
	StatusOpen = "open"

	// StatusHalfOpen indicates a half-open state.
	StatusHalfOpen = "half-open"

	// StatusClosed indicates a closed state.
	StatusClosed = "closed"
)

// Output formats matched explicitly; table output is the fallback.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// Circuit breaker defaults.
const (
	// CircuitBreakerThreshold is the failure threshold for circuit breaker.
	CircuitBreakerThreshold = 5

	// CircuitBreakerSuccessThreshold is the success threshold for circuit breaker.
	CircuitBreakerSuccessThreshold = 2

	// CircuitBreakerTimeout is the timeout for circuit breaker.
	CircuitBreakerTimeout = 30 * time.Second
)

// Cache size and lifetime constants.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is the default cache time-to-live.
	DefaultCacheTTL = 5 * time.Minute

	// MaxCacheValueSize is the maximum size for cached values (1MB).
	MaxCacheValueSize = 1024 * 1024

	// OrganisationsCacheTTL is the TTL for organisation list responses.
	OrganisationsCacheTTL = 10 * time.Minute

	// UsersCacheTTL is the TTL for user responses.
	UsersCacheTTL = 2 * time.Minute

	// AuditEventsCacheTTL is the TTL for audit event responses.
	AuditEventsCacheTTL = 30 * time.Second
)

// Conversion constants.
const (
	// BytesToMB converts bytes to megabytes.
	BytesToMB = 1024 * 1024
)
