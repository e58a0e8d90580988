package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
	"github.com/parla-ai/mapi-client/pkg/parlaclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		apiEndpoint  string
		username     string
		password     string
		apiKey       string
		organisation string
		secretsPath  string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a management API",
		Long:  "Authenticate against a management API endpoint and save the session to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get API endpoint
			if apiEndpoint == "" {
				apiEndpoint = viper.GetString("api")
			}

			if apiEndpoint == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("API endpoint: ")
				apiEndpoint, _ = reader.ReadString('\n')
				apiEndpoint = strings.TrimSpace(apiEndpoint)
			}

			if apiEndpoint == "" {
				return ErrEndpointRequired
			}

			normalizedEndpoint, err := normalizeEndpoint(apiEndpoint)
			if err != nil {
				return fmt.Errorf("invalid API endpoint: %w", err)
			}

			skipSSL := viper.GetBool("skip_ssl_validation")

			if apiKey != "" {
				return loginWithAPIKey(normalizedEndpoint, apiKey, skipSSL)
			}

			// Username/password flow
			if secretsPath != "" {
				creds, err := loadCredentialsFile(secretsPath)
				if err != nil {
					return err
				}

				if username == "" {
					username = creds.Username
				}

				if password == "" {
					password = creds.Password
				}
			}

			if username == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("Username: ")
				username, _ = reader.ReadString('\n')
				username = strings.TrimSpace(username)
			}

			if password == "" {
				fmt.Print("Password: ")

				bytePassword, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}

				password = string(bytePassword)

				fmt.Println()
			}

			if organisation == "" {
				organisation = viper.GetString(organisationKey)
			}

			return loginWithPassword(normalizedEndpoint, username, password, organisation, skipSSL)
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&apiEndpoint, "api", "a", "", "API endpoint URL")
	cmd.Flags().StringVarP(&username, "username", "u", "", "management username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "management password")
	cmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "deployment API key instead of username/password")
	cmd.Flags().StringVarP(&organisation, "organisation", "o", "", "organisation ID used to mint temporary super keys")
	cmd.Flags().StringVar(&secretsPath, "secrets", "", "JSON file holding username and password")

	return cmd
}

// credentialsFile matches the secrets file layout.
type credentialsFile struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func loadCredentialsFile(path string) (*credentialsFile, error) {
	if strings.Contains(path, "..") {
		return nil, fmt.Errorf("%w: %s", constants.ErrDirectoryTraversal, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", constants.ErrNotRegularFile, path)
	}

	// Path is validated above
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	var creds credentialsFile

	err = json.Unmarshal(data, &creds)
	if err != nil {
		return nil, fmt.Errorf("failed to parse secrets file: %w", err)
	}

	if creds.Username == "" {
		return nil, constants.ErrSecretsMissingUsername
	}

	if creds.Password == "" {
		return nil, constants.ErrSecretsMissingPassword
	}

	return &creds, nil
}

// loginWithAPIKey verifies a deployment API key and persists it.
func loginWithAPIKey(endpoint, apiKey string, skipSSL bool) error {
	mapiClient, err := parlaclient.New(&mapi.Config{
		APIEndpoint:   endpoint,
		APIKey:        apiKey,
		SkipTLSVerify: skipSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	ctx := context.Background()

	// A project listing exercises the API-key surface.
	_, err = mapiClient.Projects().ListPage(ctx, mapi.NewQueryParams().WithLimit(1))
	if err != nil {
		return fmt.Errorf("failed to verify API key: %w", err)
	}

	config := loadConfig()
	config.API = endpoint
	config.APIKey = apiKey
	config.SkipSSLValidation = skipSSL

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	syncViperConfig(config)

	_, _ = fmt.Fprintf(os.Stdout, "Successfully logged in to %s\n", endpoint)

	return nil
}

// loginWithPassword verifies Basic credentials, persists the session, and
// mints a temporary super key when an organisation is configured. The
// password itself is never written to the config file.
func loginWithPassword(endpoint, username, password, organisation string, skipSSL bool) error {
	mapiClient, err := parlaclient.New(&mapi.Config{
		APIEndpoint:   endpoint,
		Username:      username,
		Password:      password,
		SkipTLSVerify: skipSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	ctx := context.Background()

	// An organisation listing exercises the management surface.
	orgs, err := mapiClient.Organisations().ListPage(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to verify credentials: %w", err)
	}

	config := loadConfig()
	config.API = endpoint
	config.Username = username
	config.SkipSSLValidation = skipSSL

	if organisation != "" {
		config.Organisation = organisation
	}

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	syncViperConfig(config)

	_, _ = fmt.Fprintf(os.Stdout, "Successfully logged in to %s\n", endpoint)

	if len(orgs.Items) > 0 {
		_, _ = os.Stdout.WriteString("\nAvailable organisations:\n")

		for _, org := range orgs.Items {
			_, _ = fmt.Fprintf(os.Stdout, "  - %s (%s)\n", org.Name, org.ID)
		}

		if config.Organisation == "" {
			_, _ = os.Stdout.WriteString("\nUse 'mapi config set organisation <id>' to enable temporary key minting\n")
		}
	}

	if config.Organisation != "" {
		mintLoginKey(ctx, config, endpoint, password)
	}

	return nil
}

// mintLoginKey mints and persists a temporary super key so later runs can
// reach API-key routes without the password. Mint failures are warnings;
// the login itself already succeeded.
func mintLoginKey(ctx context.Context, config *Config, endpoint, password string) {
	mapiConfig := buildClientConfig(config, endpoint)
	mapiConfig.Password = password

	keyManager := createKeyManager(config, mapiConfig, endpoint)

	err := keyManager.RefreshKey(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stdout, "Warning: could not mint a temporary key: %v\n", err)

		return
	}

	_, _ = fmt.Fprintf(os.Stdout, "Temporary key minted, valid until %s\n",
		keyManager.GetKeyExpiry().Format(time.RFC3339))
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out from the management API",
		Long:  "Clear stored credentials while keeping the endpoint and output settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			config.Username = ""
			config.Organisation = ""
			config.APIKey = ""
			config.TemporaryKey = ""
			config.TemporaryKeyExpiresAt = nil
			config.LastRefreshed = nil

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Println("Successfully logged out")

			return nil
		},
	}
}
