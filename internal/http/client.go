// Package http provides the low-level HTTP client shared by the API and
// management clients. It owns URL construction, JSON encoding, error
// classification, and the interceptor hookup; authentication is delegated to
// an Authenticator.
package http

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
)

// Authenticator attaches credentials to an outgoing request. Implementations
// may perform their own HTTP calls, such as minting a temporary key.
type Authenticator interface {
	Apply(ctx context.Context, req *nethttp.Request) error
}

// Request describes one API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    interface{}
}

// Response is a completed API response.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
}

// Client is the HTTP client used for all API communication. Requests are
// issued one at a time and are not retried unless retries were configured.
type Client struct {
	baseURL      string
	auth         Authenticator
	retry        *retryablehttp.Client
	logger       mapi.Logger
	debug        bool
	userAgent    string
	interceptors *mapi.InterceptorChain
	retryMax     int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output.
func WithLogger(logger mapi.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.retry.HTTPClient.Timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig opts into retrying rate-limited and 5xx responses.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = maxRetries
		c.retry.RetryMax = maxRetries
		c.retry.RetryWaitMin = waitMin
		c.retry.RetryWaitMax = waitMax
	}
}

// WithTLSSkipVerify disables TLS certificate verification. Callers gate this
// behind MAPI_DEV_MODE.
func WithTLSSkipVerify(skip bool) Option {
	return func(c *Client) {
		if !skip {
			return
		}

		transport, ok := nethttp.DefaultTransport.(*nethttp.Transport)
		if !ok {
			return
		}

		insecure := transport.Clone()
		insecure.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // only reachable in dev mode
		c.retry.HTTPClient.Transport = insecure
	}
}

// WithInterceptors attaches an interceptor chain to every request.
func WithInterceptors(chain *mapi.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates an HTTP client rooted at baseURL. A nil authenticator
// sends unauthenticated requests.
func NewClient(baseURL string, auth Authenticator, opts ...Option) *Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = constants.DefaultRetryMax
	retry.RetryWaitMin = constants.DefaultRetryWaitMin
	retry.RetryWaitMax = constants.DefaultRetryWaitMax
	retry.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retry.Logger = nil
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		auth:      auth,
		retry:     retry,
		userAgent: constants.DefaultUserAgent,
	}

	// Non-2xx responses must come back as responses, not transport errors,
	// so the retry policy only engages when retries were opted into.
	retry.CheckRetry = func(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
		if client.retryMax <= 0 {
			return false, nil
		}

		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Do executes a request. Non-2xx responses are returned together with the
// classified error so callers can inspect the raw response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	ireq, cached, err := c.runRequestInterceptors(ctx, req, body)
	if err != nil {
		return nil, err
	}

	if cached != nil {
		return &Response{
			StatusCode: nethttp.StatusOK,
			Headers:    make(nethttp.Header),
			Body:       cached,
		}, nil
	}

	httpReq, err := c.newHTTPRequest(ctx, req, ireq, fullURL, body)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})
	}

	httpResp, err := c.retry.Do(httpReq)
	if err != nil {
		netErr := &mapi.NetworkError{URL: fullURL, Err: err}
		c.runResponseInterceptors(ctx, ireq, &mapi.Response{Error: netErr})

		return nil, netErr
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		netErr := &mapi.NetworkError{URL: fullURL, Err: err}
		c.runResponseInterceptors(ctx, ireq, &mapi.Response{StatusCode: httpResp.StatusCode, Error: netErr})

		return nil, netErr
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status_code": resp.StatusCode,
			"size_mb":     float64(len(respBody)) / float64(constants.BytesToMB),
		})
	}

	var reqErr error
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr = mapi.NewRequestError(resp.StatusCode, fullURL, respBody)
	}

	c.runResponseInterceptors(ctx, ireq, &mapi.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       respBody,
		Error:      reqErr,
	})

	return resp, reqErr
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: nethttp.MethodDelete, Path: path})
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return data, nil
}

// runRequestInterceptors executes the request side of the chain. When an
// interceptor placed a cached body in the request metadata, that body is
// returned and the network is skipped.
func (c *Client) runRequestInterceptors(ctx context.Context, req *Request, body []byte) (*mapi.Request, []byte, error) {
	if c.interceptors == nil {
		return nil, nil, nil
	}

	headers := make(nethttp.Header)
	for name, value := range req.Headers {
		headers.Set(name, value)
	}

	query := make(url.Values, len(req.Query))
	for name, values := range req.Query {
		query[name] = append([]string(nil), values...)
	}

	ireq := &mapi.Request{
		Method:   req.Method,
		Path:     req.Path,
		Query:    query,
		Headers:  headers,
		Body:     body,
		Metadata: make(map[string]interface{}),
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, ireq)
	if err != nil {
		return nil, nil, err
	}

	if cached, ok := ireq.Metadata["cached_response"].([]byte); ok {
		return ireq, cached, nil
	}

	return ireq, nil, nil
}

// runResponseInterceptors executes the response side of the chain. Failures
// are logged, not propagated: a cache store problem must not fail a request
// that already succeeded.
func (c *Client) runResponseInterceptors(ctx context.Context, ireq *mapi.Request, iresp *mapi.Response) {
	if c.interceptors == nil || ireq == nil {
		return
	}

	err := c.interceptors.ExecuteResponseInterceptors(ctx, ireq, iresp)
	if err != nil && c.logger != nil {
		c.logger.Warn("response interceptor failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request, ireq *mapi.Request, fullURL string, body []byte) (*retryablehttp.Request, error) {
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	query := req.Query

	if ireq != nil {
		// Interceptors may have added headers or query parameters
		for name, values := range ireq.Headers {
			httpReq.Header[name] = values
		}

		query = ireq.Query
	}

	if len(query) > 0 {
		httpReq.URL.RawQuery = query.Encode()
	}

	if c.auth != nil {
		err = c.auth.Apply(ctx, httpReq.Request)
		if err != nil {
			return nil, fmt.Errorf("applying authentication: %w", err)
		}
	}

	return httpReq, nil
}
