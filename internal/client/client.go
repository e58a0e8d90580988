// Package client implements the mapi.Client interface over the two route
// surfaces of the management API: the API-key surface and the Basic-auth
// management surface.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/url"
	"os"
	"strings"

	"github.com/parla-ai/mapi-client/internal/auth"
	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/internal/http"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// Client implements the mapi.Client interface. Each route surface carries
// its own authenticator and path prefix; the interceptor chain and response
// cache, when configured, are shared by both.
type Client struct {
	api    *surface
	mgmt   *surface
	logger mapi.Logger

	cacheManager *mapi.CacheManager
	metrics      *mapi.MetricsCollector

	// Resource clients
	users         mapi.UsersClient
	organisations mapi.OrganisationsClient
	auditEvents   mapi.AuditEventsClient
	projects      mapi.ProjectsClient
}

// New creates a client from config. At least one credential set must be
// present: an API key, or a management username/password pair. A route
// whose surface has no usable credentials fails at call time with
// mapi.ErrAPIKeyRequired or mapi.ErrBasicCredentialsRequired instead of
// reaching the network.
func New(config *mapi.Config) (*Client, error) {
	if config == nil {
		return nil, mapi.ErrConfigRequired
	}

	hasAPIKey := config.APIKey != ""
	hasBasic := config.Username != "" && config.Password != ""

	if !hasAPIKey && !hasBasic {
		return nil, mapi.ErrMissingCredentials
	}

	return newClient(config, nil)
}

// NewWithKeyManager creates a client whose API-key routes authenticate
// through the provided key manager instead of the credentials in config.
// CLI wiring uses this to reuse and persist minted temporary keys across
// runs.
func NewWithKeyManager(config *mapi.Config, keyManager http.Authenticator) (*Client, error) {
	if config == nil {
		return nil, mapi.ErrConfigRequired
	}

	return newClient(config, keyManager)
}

func newClient(config *mapi.Config, apiAuth http.Authenticator) (*Client, error) {
	if config.APIEndpoint == "" {
		return nil, mapi.ErrAPIEndpointRequired
	}

	// Insecure TLS is for local development only.
	if config.SkipTLSVerify && !isDevelopmentEnvironment() {
		return nil, fmt.Errorf("%w (set MAPI_DEV_MODE=true)", mapi.ErrSkipTLSOnlyInDev)
	}

	endpoint := strings.TrimSuffix(config.APIEndpoint, "/")
	apiBase := basePath(config.APIBasePath, constants.DefaultAPIBasePath)
	mgmtBase := basePath(config.ManagementBasePath, constants.DefaultManagementBasePath)

	client := &Client{logger: config.Logger}

	chain, err := client.configureCache(config)
	if err != nil {
		return nil, err
	}

	httpOpts := createHTTPOptions(config, chain)

	if apiAuth == nil {
		apiAuth = createAPIAuthenticator(config, endpoint+"/"+mgmtBase)
	}
	mgmtAuth := createManagementAuthenticator(config)

	client.api = &surface{
		http:     http.NewClient(endpoint, apiAuth, httpOpts...),
		basePath: apiBase,
		fields:   config.PageFields,
	}
	if apiAuth == nil {
		client.api.err = mapi.ErrAPIKeyRequired
	}

	client.mgmt = &surface{
		http:     http.NewClient(endpoint, mgmtAuth, httpOpts...),
		basePath: mgmtBase,
		fields:   config.PageFields,
	}
	if mgmtAuth == nil {
		client.mgmt.err = mapi.ErrBasicCredentialsRequired
	}

	client.initializeResourceClients()

	return client, nil
}

// createAPIAuthenticator picks credentials for the API-key surface. A
// static key wins; Basic credentials plus an organisation fall back to
// minting temporary super keys through the management surface.
func createAPIAuthenticator(config *mapi.Config, managementURL string) http.Authenticator {
	if config.APIKey != "" {
		return auth.NewAPIKeyAuthenticator(config.APIKey)
	}

	if config.Username != "" && config.Password != "" && config.OrganisationID != "" {
		return auth.NewTemporaryKeyAuthenticator(&auth.TemporaryKeyConfig{
			ManagementURL:  managementURL,
			Username:       config.Username,
			Password:       config.Password,
			OrganisationID: config.OrganisationID,
		})
	}

	return nil
}

// createManagementAuthenticator builds the Basic authenticator for the
// management surface when credentials are configured.
func createManagementAuthenticator(config *mapi.Config) http.Authenticator {
	if config.Username != "" && config.Password != "" {
		return auth.NewBasicAuthenticator(config.Username, config.Password)
	}

	return nil
}

// isDevelopmentEnvironment checks if we're in a development environment.
func isDevelopmentEnvironment() bool {
	devMode := os.Getenv("MAPI_DEV_MODE")

	return devMode == "true" || devMode == "1"
}

// createHTTPOptions builds HTTP client options from config.
func createHTTPOptions(config *mapi.Config, chain *mapi.InterceptorChain) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.SkipTLSVerify {
		httpOpts = append(httpOpts, http.WithTLSSkipVerify(true))
	}

	if chain != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(chain))
	}

	return httpOpts
}

// configureCache builds the response cache and its interceptor chain. A nil
// cache config, or an explicit "none" type, disables caching entirely.
func (c *Client) configureCache(config *mapi.Config) (*mapi.InterceptorChain, error) {
	if config.Cache == nil || config.Cache.Type == mapi.CacheTypeNone {
		return nil, nil
	}

	backend, err := mapi.NewCacheFromConfig(config.Cache)
	if err != nil {
		return nil, fmt.Errorf("configuring response cache: %w", err)
	}

	c.cacheManager = mapi.NewCacheManager(backend, c.logger)

	chain := mapi.NewInterceptorChain()
	c.metrics = mapi.ConfigureSmartCache(chain, c.cacheManager, nil)

	return chain, nil
}

// basePath normalizes a configured path prefix, falling back to the
// documented default.
func basePath(configured, fallback string) string {
	path := configured
	if path == "" {
		path = fallback
	}

	return strings.Trim(path, "/")
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients() {
	c.users = NewUsersClient(c.api, c.mgmt)
	c.organisations = NewOrganisationsClient(c.mgmt)
	c.auditEvents = NewAuditEventsClient(c.api)
	c.projects = NewProjectsClient(c.api)
}

// Resource client accessors

// Users implements mapi.Client.Users.
func (c *Client) Users() mapi.UsersClient {
	return c.users
}

// Organisations implements mapi.Client.Organisations.
func (c *Client) Organisations() mapi.OrganisationsClient {
	return c.organisations
}

// AuditEvents implements mapi.Client.AuditEvents.
func (c *Client) AuditEvents() mapi.AuditEventsClient {
	return c.auditEvents
}

// Projects implements mapi.Client.Projects.
func (c *Client) Projects() mapi.ProjectsClient {
	return c.projects
}

// Metrics returns the per-endpoint request metrics collector, or nil when
// caching is disabled.
func (c *Client) Metrics() *mapi.MetricsCollector {
	return c.metrics
}

// CacheManager returns the response cache manager, or nil when caching is
// disabled.
func (c *Client) CacheManager() *mapi.CacheManager {
	return c.cacheManager
}

// Raw endpoint access against the API-key surface, for documented routes
// that have no typed wrapper yet.

// Get implements mapi.RawClient.Get.
func (c *Client) Get(ctx context.Context, path string, params *mapi.QueryParams) (json.RawMessage, error) {
	var query url.Values
	if params != nil {
		query = c.api.params(params).ToValues()
	}

	resp, err := c.api.get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", path, err)
	}

	return json.RawMessage(resp.Body), nil
}

// Post implements mapi.RawClient.Post.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	resp, err := c.api.post(ctx, path, nil, body)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", path, err)
	}

	return json.RawMessage(resp.Body), nil
}

// Put implements mapi.RawClient.Put.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	resp, err := c.api.put(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("putting %s: %w", path, err)
	}

	return json.RawMessage(resp.Body), nil
}

// Delete implements mapi.RawClient.Delete.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := c.api.delete(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", path, err)
	}

	return json.RawMessage(resp.Body), nil
}

// surface binds one route family to its HTTP client, path prefix, and
// pagination field names. err is non-nil when the surface has no usable
// credentials; every call through the surface fails with it.
type surface struct {
	http     *http.Client
	basePath string
	fields   mapi.PageFields
	err      error
}

// path joins an endpoint onto the surface prefix. Continuation requests go
// through the same prefix as the first page.
func (s *surface) path(endpoint string) string {
	return s.basePath + "/" + strings.TrimPrefix(endpoint, "/")
}

// params returns a copy of params bound to the surface's pagination field
// names, so cursor parameters and envelope keys match the deployment.
func (s *surface) params(params *mapi.QueryParams) *mapi.QueryParams {
	if params == nil {
		params = mapi.NewQueryParams()
	} else {
		params = params.Clone()
	}

	return params.WithFieldNames(s.fields)
}

func (s *surface) get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.http.Get(ctx, s.path(endpoint), query)
}

func (s *surface) post(ctx context.Context, endpoint string, query url.Values, body interface{}) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}

	if query == nil {
		return s.http.Post(ctx, s.path(endpoint), body)
	}

	return s.http.Do(ctx, &http.Request{
		Method: nethttp.MethodPost,
		Path:   s.path(endpoint),
		Query:  query,
		Body:   body,
	})
}

func (s *surface) put(ctx context.Context, endpoint string, body interface{}) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.http.Put(ctx, s.path(endpoint), body)
}

func (s *surface) delete(ctx context.Context, endpoint string) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.http.Delete(ctx, s.path(endpoint))
}

// listPage fetches one page from a surface and decodes the list envelope
// with the surface's field names. Callers are expected to bind params to
// the surface first.
func listPage[T any](ctx context.Context, s *surface, endpoint string, params *mapi.QueryParams) (*mapi.ListResponse[T], error) {
	var query url.Values
	if params != nil {
		query = params.ToValues()
	}

	resp, err := s.get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}

	return mapi.DecodeListResponse[T](resp.Body, s.fields, s.path(endpoint))
}

// pageLister adapts a surface to mapi.PaginationClient for one item type.
type pageLister[T any] struct {
	surface *surface
}

func (l *pageLister[T]) ListPage(ctx context.Context, endpoint string, params *mapi.QueryParams) (*mapi.ListResponse[T], error) {
	return listPage[T](ctx, l.surface, endpoint, params)
}
