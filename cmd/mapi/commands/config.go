package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const organisationKey = "organisation"

// Config represents the CLI configuration. Passwords are never persisted;
// only the endpoint, account identity, and minted temporary keys are.
type Config struct {
	API          string `json:"api,omitempty"          yaml:"api,omitempty"`
	Username     string `json:"username,omitempty"     yaml:"username,omitempty"`
	Organisation string `json:"organisation,omitempty" yaml:"organisation,omitempty"`
	APIKey       string `json:"api_key,omitempty"      yaml:"api_key,omitempty"`

	// Temporary super key state maintained by the key manager.
	TemporaryKey          string     `json:"temporary_key,omitempty"            yaml:"temporary_key,omitempty"`
	TemporaryKeyExpiresAt *time.Time `json:"temporary_key_expires_at,omitempty" yaml:"temporary_key_expires_at,omitempty"`
	LastRefreshed         *time.Time `json:"last_refreshed,omitempty"           yaml:"last_refreshed,omitempty"`

	// Global settings
	Output            string `json:"output"              yaml:"output"`
	NoColor           bool   `json:"no_color"            yaml:"no_color"`
	SkipSSLValidation bool   `json:"skip_ssl_validation" yaml:"skip_ssl_validation"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage MAPI CLI configuration including the endpoint, credentials, and output settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked in table output",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			output := viper.GetString("output")
			switch output {
			case constants.FormatJSON:
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")

				return encoder.Encode(config)
			case constants.FormatYAML:
				encoder := yaml.NewEncoder(os.Stdout)

				return encoder.Encode(config)
			default:
				return displayConfigTable(config)
			}
		},
	}
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Print a single configuration value without masking, for use in scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := getConfigValue(args[0])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(os.Stdout, value)

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value and persist it to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(args[0], args[1])
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(args[0], "")
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the config file and all settings stored in it",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := viper.ConfigFileUsed()
			if configFile == "" {
				home, _ := os.UserHomeDir()
				configFile = filepath.Join(home, ".mapi", "config.yml")
			}

			err := os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			_, _ = os.Stdout.WriteString("Cleared all configuration\n")

			return nil
		},
	}
}

func loadConfig() *Config {
	config := &Config{
		API:               viper.GetString("api"),
		Username:          viper.GetString("username"),
		Organisation:      viper.GetString(organisationKey),
		APIKey:            viper.GetString("api_key"),
		TemporaryKey:      viper.GetString("temporary_key"),
		Output:            viper.GetString("output"),
		NoColor:           viper.GetBool("no_color"),
		SkipSSLValidation: viper.GetBool("skip_ssl_validation"),
	}

	if expiresAt := viper.GetTime("temporary_key_expires_at"); !expiresAt.IsZero() {
		config.TemporaryKeyExpiresAt = &expiresAt
	}

	if refreshed := viper.GetTime("last_refreshed"); !refreshed.IsZero() {
		config.LastRefreshed = &refreshed
	}

	return config
}

// syncViperConfig mirrors persisted values into viper so later loads within
// the same process observe them.
func syncViperConfig(config *Config) {
	viper.Set("api", config.API)
	viper.Set("username", config.Username)
	viper.Set(organisationKey, config.Organisation)
	viper.Set("api_key", config.APIKey)
	viper.Set("temporary_key", config.TemporaryKey)

	if config.TemporaryKeyExpiresAt != nil {
		viper.Set("temporary_key_expires_at", config.TemporaryKeyExpiresAt.Format(time.RFC3339))
	}
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ".mapi")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func getConfigValue(key string) (string, error) {
	config := loadConfig()

	switch key {
	case "api":
		return config.API, nil
	case "username":
		return config.Username, nil
	case organisationKey:
		return config.Organisation, nil
	case "api_key":
		return config.APIKey, nil
	case "output":
		return config.Output, nil
	case "no_color":
		return fmt.Sprintf("%t", config.NoColor), nil
	case "skip_ssl_validation":
		return fmt.Sprintf("%t", config.SkipSSLValidation), nil
	default:
		return "", fmt.Errorf("%w: %s", mapi.ErrUnknownConfigKey, key)
	}
}

// setConfigValue updates one configuration key. An empty value unsets it.
func setConfigValue(key, value string) error {
	config := loadConfig()

	switch key {
	case "api":
		config.API = value
	case "username":
		config.Username = value
	case organisationKey:
		config.Organisation = value
	case "api_key":
		config.APIKey = value
	case "output":
		config.Output = value
	case "no_color":
		config.NoColor = value == "true" || value == "1"
	case "skip_ssl_validation":
		config.SkipSSLValidation = value == "true" || value == "1"
	default:
		return fmt.Errorf("%w: %s", mapi.ErrUnknownConfigKey, key)
	}

	err := saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	if value == "" {
		_, _ = fmt.Fprintf(os.Stdout, "Unset %s\n", key)
	} else {
		_, _ = fmt.Fprintf(os.Stdout, "Set %s to %s\n", key, maskConfigValue(key, value))
	}

	return nil
}

// maskConfigValue hides secrets when echoing configuration changes.
func maskConfigValue(key, value string) string {
	if key == "api_key" {
		return Masked
	}

	return value
}

func displayConfigTable(config *Config) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Setting", "Value")

	_ = table.Append("API", valueOrNotAvailable(config.API))
	_ = table.Append("Username", valueOrNotAvailable(config.Username))
	_ = table.Append("Organisation", valueOrNotAvailable(config.Organisation))
	_ = table.Append("API Key", maskedOrNotAvailable(config.APIKey))
	_ = table.Append("Temporary Key", maskedOrNotAvailable(config.TemporaryKey))

	expiry := NotAvailable
	if config.TemporaryKeyExpiresAt != nil {
		expiry = config.TemporaryKeyExpiresAt.Format(time.RFC3339)
	}

	_ = table.Append("Temporary Key Expires", expiry)
	_ = table.Append("Output", valueOrNotAvailable(config.Output))
	_ = table.Append("Skip SSL Validation", fmt.Sprintf("%v", config.SkipSSLValidation))

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render config table: %w", err)
	}

	return nil
}

func valueOrNotAvailable(value string) string {
	if value == "" {
		return NotAvailable
	}

	return value
}

func maskedOrNotAvailable(value string) string {
	if value == "" {
		return NotAvailable
	}

	return Masked
}
