package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/parla-ai/mapi-client/internal/auth"
	"github.com/parla-ai/mapi-client/internal/client"
	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
	"github.com/parla-ai/mapi-client/pkg/parlaclient"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	// Masked replaces secret values in human-readable output.
	Masked = "***"

	defaultYAMLIndent = 2
)

// Common static errors used throughout the commands package.
var (
	ErrNoEndpointConfigured  = errors.New("no API endpoint configured")
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrEndpointRequired      = errors.New("API endpoint is required")
	ErrNoTemporaryKey        = errors.New("no temporary key available")
	ErrKeyCredentialsMissing = errors.New("username, password, and organisation are required to mint keys")
	ErrOrganisationIDMissing = errors.New("organisation ID is required")
)

// CreateClientFromConfig builds a client from the resolved configuration.
// A static API key wins; otherwise Basic credentials plus an organisation
// run through a config-backed key manager so minted temporary keys survive
// across invocations.
func CreateClientFromConfig() (mapi.Client, error) {
	config := loadConfig()

	if config.API == "" {
		return nil, fmt.Errorf("%w, run 'mapi login' or pass --api", ErrNoEndpointConfigured)
	}

	endpoint, err := normalizeEndpoint(config.API)
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint: %w", err)
	}

	mapiConfig := buildClientConfig(config, endpoint)

	if mapiConfig.APIKey == "" && mapiConfig.Username == "" && config.TemporaryKey == "" {
		return nil, fmt.Errorf("%w, run 'mapi login' first", ErrNotAuthenticated)
	}

	if mapiConfig.APIKey == "" && hasKeyCredentials(config, mapiConfig.Password) {
		keyManager := createKeyManager(config, mapiConfig, endpoint)

		mapiClient, err := client.NewWithKeyManager(mapiConfig, keyManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create client with key manager: %w", err)
		}

		return mapiClient, nil
	}

	mapiClient, err := parlaclient.New(mapiConfig)
	if err != nil {
		return nil, err
	}

	return mapiClient, nil
}

// buildClientConfig maps CLI configuration to client configuration. The
// password is never persisted, so it only arrives through the MAPI_PASSWORD
// environment variable or a login prompt.
func buildClientConfig(config *Config, endpoint string) *mapi.Config {
	mapiConfig := &mapi.Config{
		APIEndpoint:    endpoint,
		APIKey:         config.APIKey,
		Username:       config.Username,
		Password:       viper.GetString("password"),
		OrganisationID: config.Organisation,
		SkipTLSVerify:  config.SkipSSLValidation,
		UserAgent:      "mapi-cli/" + versioninfo.Short(),
	}

	if viper.GetBool("verbose") {
		mapiConfig.Logger = newCLILogger()
		mapiConfig.Debug = true
	}

	return mapiConfig
}

// hasKeyCredentials reports whether API-key routes can be served without a
// static key: either a persisted temporary key, or everything needed to
// mint one.
func hasKeyCredentials(config *Config, password string) bool {
	if config.TemporaryKey != "" {
		return true
	}

	return config.Username != "" && password != "" && config.Organisation != ""
}

// createKeyManager builds a key manager seeded with the persisted temporary
// key. Fresh mints are written back to the config file.
func createKeyManager(config *Config, mapiConfig *mapi.Config, endpoint string) *auth.ConfigKeyManager {
	keyConfig := &auth.TemporaryKeyConfig{
		ManagementURL:  endpoint + "/" + constants.DefaultManagementBasePath,
		Username:       mapiConfig.Username,
		Password:       mapiConfig.Password,
		OrganisationID: mapiConfig.OrganisationID,
	}

	initialExpiry := time.Time{}
	if config.TemporaryKeyExpiresAt != nil {
		initialExpiry = *config.TemporaryKeyExpiresAt
	}

	return auth.NewConfigKeyManager(keyConfig, NewConfigPersister(),
		extractDomainFromEndpoint(endpoint), config.TemporaryKey, initialExpiry)
}

// zerologAdapter bridges zerolog to the mapi.Logger interface.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (l *zerologAdapter) log(event *zerolog.Event, msg string, fields map[string]interface{}) {
	for key, value := range fields {
		event = event.Interface(key, value)
	}

	event.Msg(msg)
}

func (l *zerologAdapter) Debug(msg string, fields map[string]interface{}) {
	l.log(l.logger.Debug(), msg, fields)
}

func (l *zerologAdapter) Info(msg string, fields map[string]interface{}) {
	l.log(l.logger.Info(), msg, fields)
}

func (l *zerologAdapter) Warn(msg string, fields map[string]interface{}) {
	l.log(l.logger.Warn(), msg, fields)
}

func (l *zerologAdapter) Error(msg string, fields map[string]interface{}) {
	l.log(l.logger.Error(), msg, fields)
}

// newCLILogger builds the console logger used with --verbose.
func newCLILogger() mapi.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    viper.GetBool("no_color"),
	}

	return &zerologAdapter{
		logger: zerolog.New(writer).With().Timestamp().Logger(),
	}
}

// normalizeEndpoint validates and normalizes an API endpoint URL.
func normalizeEndpoint(endpoint string) (string, error) {
	// Add https:// if no protocol is specified
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Host == "" {
		return "", mapi.ErrNoHostInURL
	}

	// Remove trailing slash and path for consistency
	return fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host), nil
}

// extractDomainFromEndpoint extracts the domain portion from an API endpoint.
func extractDomainFromEndpoint(endpoint string) string {
	domain := endpoint
	if strings.HasPrefix(domain, "https://") {
		domain = strings.TrimPrefix(domain, "https://")
	} else if strings.HasPrefix(domain, "http://") {
		domain = strings.TrimPrefix(domain, "http://")
	}

	if idx := strings.Index(domain, "/"); idx != -1 {
		domain = domain[:idx]
	}

	if idx := strings.Index(domain, ":"); idx != -1 {
		domain = domain[:idx]
	}

	return domain
}

// fetchListPages fetches one page, or every page when allPages is set. The
// boolean result reports whether more results remain on the server: either
// further pages without --all, or a hit page bound with it.
func fetchListPages[T any](
	ctx context.Context,
	listPage func(ctx context.Context, params *mapi.QueryParams) (*mapi.ListResponse[T], error),
	params *mapi.QueryParams,
	allPages bool,
	limit, maxPages int,
) ([]T, bool, error) {
	if limit <= 0 {
		return nil, false, constants.ErrInvalidPageSize
	}

	if maxPages <= 0 {
		return nil, false, constants.ErrInvalidMaxPages
	}

	if params == nil {
		params = mapi.NewQueryParams()
	}

	if !allPages {
		params = params.Clone().WithLimit(limit)

		page, err := listPage(ctx, params)
		if err != nil {
			return nil, false, err
		}

		more := page.NextCursor != nil && *page.NextCursor != ""

		return page.Items, more, nil
	}

	opts := mapi.DefaultPaginationOptions()
	opts.PageSize = limit
	opts.MaxPages = maxPages

	if viper.GetBool("verbose") {
		opts.Progress = func(pages, items int) {
			_, _ = fmt.Fprintf(os.Stderr, "Fetched page %d (%d items)\n", pages, items)
		}
	}

	items, err := mapi.FetchAllPages(ctx, mapi.PageFunc[T](listPage), "", params, opts)
	if err != nil {
		// Partial results survive the page bound.
		if mapi.IsPaginationLimitExceeded(err) {
			return items, true, nil
		}

		return nil, false, err
	}

	return items, false, nil
}

// printMoreResultsHint tells the user how to fetch the rest of a truncated
// listing. Only table output gets the hint; structured output stays clean.
func printMoreResultsHint(truncated, allPages bool) {
	if !truncated {
		return
	}

	output := viper.GetString("output")
	if output == OutputFormatJSON || output == OutputFormatYAML {
		return
	}

	if allPages {
		_, _ = os.Stdout.WriteString("\nPage bound reached; results are partial. Raise --max-pages to fetch more.\n")
	} else {
		_, _ = os.Stdout.WriteString("\nMore results available. Use --all to fetch every page.\n")
	}
}

// confirmAction prompts for confirmation unless force is set. It returns
// true when the action should proceed.
func confirmAction(force bool, prompt string) bool {
	if force {
		return true
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s (y/N): ", prompt)

	var response string

	_, _ = fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		_, _ = os.Stdout.WriteString("Cancelled\n")

		return false
	}

	return true
}

// StandardJSONRenderer creates a standard JSON encoder.
func StandardJSONRenderer[T any](data T) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer creates a standard YAML encoder.
func StandardYAMLRenderer[T any](data T) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(defaultYAMLIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}
