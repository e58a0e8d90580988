package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewOrgsCommand creates the organisations command group.
func NewOrgsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organisations", "org"},
		Short:   "Manage organisations",
		Long:    "List organisations and mint temporary API keys for them",
	}

	cmd.AddCommand(newOrgsListCommand())
	cmd.AddCommand(newOrgsCreateKeyCommand())

	return cmd
}

func newOrgsListCommand() *cobra.Command {
	var (
		allPages bool
		limit    int
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organisations",
		Long:  "List the organisations the configured credentials can manage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrgsListCommand(allPages, limit, maxPages)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&limit, "limit", constants.DefaultPageSize, "results per page")
	cmd.Flags().IntVar(&maxPages, "max-pages", constants.DefaultMaxPages, "page bound when fetching all pages")

	return cmd
}

func runOrgsListCommand(allPages bool, limit, maxPages int) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	orgs, truncated, err := fetchListPages(ctx, client.Organisations().ListPage, nil, allPages, limit, maxPages)
	if err != nil {
		return fmt.Errorf("failed to list organisations: %w", err)
	}

	return outputOrganisations(orgs, truncated, allPages)
}

func outputOrganisations(orgs []mapi.Organisation, truncated, allPages bool) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(orgs)
	case OutputFormatYAML:
		return StandardYAMLRenderer(orgs)
	default:
		err := renderOrganisationTable(orgs)
		if err != nil {
			return err
		}

		printMoreResultsHint(truncated, allPages)

		return nil
	}
}

func renderOrganisationTable(orgs []mapi.Organisation) error {
	if len(orgs) == 0 {
		_, _ = os.Stdout.WriteString("No organisations found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "ID", "Status", "Created")

	for _, org := range orgs {
		status := "active"
		if org.Disabled {
			status = "disabled"
		}

		_ = table.Append(org.Name, org.ID, status,
			org.CreatedAt.Format("2006-01-02"))
	}

	_ = table.Render()

	return nil
}

func newOrgsCreateKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create-key ORG_ID",
		Short: "Mint a temporary API key",
		Long:  "Mint a temporary super key for the organisation through the management surface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrgsCreateKeyCommand(args[0])
		},
	}
}

func runOrgsCreateKeyCommand(organisationID string) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	apiKey, err := client.Organisations().CreateAPIKey(ctx, organisationID)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	return outputAPIKey(apiKey)
}

func outputAPIKey(apiKey *mapi.APIKey) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(apiKey)
	case OutputFormatYAML:
		return StandardYAMLRenderer(apiKey)
	default:
		return renderAPIKeyTable(apiKey)
	}
}

func renderAPIKeyTable(apiKey *mapi.APIKey) error {
	_, _ = os.Stdout.WriteString("Temporary API key minted:\n\n")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	if apiKey.ID != "" {
		_ = table.Append("ID", apiKey.ID)
	}

	_ = table.Append("Key", apiKey.Key)

	if apiKey.Role != "" {
		_ = table.Append("Role", apiKey.Role)
	}

	if apiKey.Organisation != "" {
		_ = table.Append("Organisation", apiKey.Organisation)
	}

	validUntil := NotAvailable
	if apiKey.ValidUntil != nil {
		validUntil = apiKey.ValidUntil.Format(time.RFC3339)
	}

	_ = table.Append("Valid Until", validUntil)

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render API key table: %w", err)
	}

	_, _ = os.Stdout.WriteString("\nThe key expires fifteen minutes after minting\n")

	return nil
}
