package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// NewKeyCommand creates the key command group.
func NewKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage temporary API keys",
		Long:  "Commands for managing minted temporary super keys including status and refresh",
	}

	cmd.AddCommand(newKeyStatusCommand())
	cmd.AddCommand(newKeyRefreshCommand())

	return cmd
}

func newKeyStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show temporary key status and expiration",
		Long:  "Display information about the persisted temporary super key including expiration time",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if config.API == "" {
				return fmt.Errorf("%w, run 'mapi login' or pass --api", ErrNoEndpointConfigured)
			}

			return displayKeyStatus(config)
		},
	}
}

func newKeyRefreshCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Mint a fresh temporary key",
		Long:  "Discard the persisted temporary super key and mint a new one through the management surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if config.API == "" {
				return fmt.Errorf("%w, run 'mapi login' or pass --api", ErrNoEndpointConfigured)
			}

			if password == "" {
				password = viper.GetString("password")
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

			if config.Username == "" || password == "" || config.Organisation == "" {
				return fmt.Errorf("%w, run 'mapi login' with an organisation first", ErrKeyCredentialsMissing)
			}

			return refreshTemporaryKey(config, password)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "management password")

	return cmd
}

func displayKeyStatus(config *Config) error {
	output := viper.GetString("output")
	keyStatus := buildKeyStatusData(config)

	switch output {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(keyStatus)
		if err != nil {
			return fmt.Errorf("encoding key status to JSON: %w", err)
		}

		return nil
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(os.Stdout)

		err := encoder.Encode(keyStatus)
		if err != nil {
			return fmt.Errorf("failed to encode key status as YAML: %w", err)
		}

		return nil
	default:
		return displayKeyStatusTable(config, keyStatus)
	}
}

func buildKeyStatusData(config *Config) map[string]interface{} {
	keyStatus := map[string]interface{}{
		"endpoint":       config.API,
		"static_api_key": config.APIKey != "",
	}

	if config.TemporaryKey == "" {
		keyStatus["status"] = "No temporary key"
		keyStatus["key_present"] = false

		return keyStatus
	}

	keyStatus["status"] = "Key present"
	keyStatus["key_present"] = true

	if config.TemporaryKeyExpiresAt != nil {
		addKeyExpirationInfo(keyStatus, config.TemporaryKeyExpiresAt)
	} else {
		keyStatus["expiry_status"] = "Unknown expiration"
	}

	if config.LastRefreshed != nil {
		keyStatus["last_refreshed"] = config.LastRefreshed.Format(time.RFC3339)
	}

	return keyStatus
}

// addKeyExpirationInfo adds expiration status and timing information.
func addKeyExpirationInfo(keyStatus map[string]interface{}, expiresAt *time.Time) {
	keyStatus["expires_at"] = expiresAt.Format(time.RFC3339)

	timeUntilExpiry := time.Until(*expiresAt)

	switch {
	case timeUntilExpiry <= 0:
		keyStatus["expiry_status"] = "Expired"
	case timeUntilExpiry <= 5*time.Minute:
		keyStatus["expiry_status"] = "Expires soon"
	default:
		keyStatus["expiry_status"] = "Valid"
	}

	keyStatus["time_until_expiry"] = timeUntilExpiry.String()
}

func displayKeyStatusTable(config *Config, keyStatus map[string]interface{}) error {
	_, _ = fmt.Fprintf(os.Stdout, "Temporary key status for %s\n\n", config.API)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("Status", fmt.Sprintf("%v", keyStatus["status"]))
	_ = table.Append("Static API Key", fmt.Sprintf("%v", keyStatus["static_api_key"]))

	if expiryStatus, ok := keyStatus["expiry_status"]; ok {
		_ = table.Append("Expiry Status", fmt.Sprintf("%v", expiryStatus))
	}

	if expiresAt, ok := keyStatus["expires_at"]; ok {
		_ = table.Append("Expires At", fmt.Sprintf("%v", expiresAt))
	}

	if timeUntilExpiry, ok := keyStatus["time_until_expiry"]; ok {
		_ = table.Append("Time Until Expiry", fmt.Sprintf("%v", timeUntilExpiry))
	}

	if lastRefreshed, ok := keyStatus["last_refreshed"]; ok {
		_ = table.Append("Last Refreshed", fmt.Sprintf("%v", lastRefreshed))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render key status table: %w", err)
	}

	return nil
}

func refreshTemporaryKey(config *Config, password string) error {
	_, _ = fmt.Fprintf(os.Stdout, "Refreshing temporary key for %s\n", config.API)

	endpoint, err := normalizeEndpoint(config.API)
	if err != nil {
		return fmt.Errorf("invalid API endpoint: %w", err)
	}

	mapiConfig := buildClientConfig(config, endpoint)
	mapiConfig.Password = password

	keyManager := createKeyManager(config, mapiConfig, endpoint)

	ctx := context.Background()

	err = keyManager.RefreshKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh temporary key: %w", err)
	}

	_, _ = os.Stdout.WriteString("Temporary key refreshed successfully!\n")

	expiresAt := keyManager.GetKeyExpiry()
	if !expiresAt.IsZero() {
		_, _ = fmt.Fprintf(os.Stdout, "New key expires at: %s\n", expiresAt.Format(time.RFC3339))
		_, _ = fmt.Fprintf(os.Stdout, "Time until expiry: %s\n", time.Until(expiresAt).String())
	}

	return nil
}
