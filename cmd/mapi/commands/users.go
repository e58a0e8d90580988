package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage users",
		Long:    "List and inspect platform users through the management surface",
	}

	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newUsersGetCommand())
	cmd.AddCommand(newUsersAdminsCommand())
	cmd.AddCommand(newUsersDeprecatePasswordCommand())

	return cmd
}

func newUsersListCommand() *cobra.Command {
	var (
		allPages bool
		limit    int
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long:  "List the users of the configured organisation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersListCommand(allPages, limit, maxPages)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&limit, "limit", constants.DefaultPageSize, "results per page")
	cmd.Flags().IntVar(&maxPages, "max-pages", constants.DefaultMaxPages, "page bound when fetching all pages")

	return cmd
}

func runUsersListCommand(allPages bool, limit, maxPages int) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	users, truncated, err := fetchListPages(ctx, client.Users().ListPage, nil, allPages, limit, maxPages)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	return outputUsers(users, truncated, allPages)
}

func outputUsers(users []mapi.User, truncated, allPages bool) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(users)
	case OutputFormatYAML:
		return StandardYAMLRenderer(users)
	default:
		err := renderUserTable(users)
		if err != nil {
			return err
		}

		printMoreResultsHint(truncated, allPages)

		return nil
	}
}

func renderUserTable(users []mapi.User) error {
	if len(users) == 0 {
		_, _ = os.Stdout.WriteString("No users found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Email", "ID", "Roles", "Status", "Last Login")

	for _, user := range users {
		status := "inactive"
		if user.Active {
			status = "active"
		}

		lastLogin := NotAvailable
		if user.LastLoginAt != nil {
			lastLogin = user.LastLoginAt.Format("2006-01-02")
		}

		_ = table.Append(user.Email, user.ID,
			strings.Join(user.Roles, ", "), status, lastLogin)
	}

	_ = table.Render()

	return nil
}

func newUsersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get user details",
		Long:  "Display detailed information about a specific user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersGetCommand(args[0])
		},
	}
}

func runUsersGetCommand(userID string) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	user, err := client.Users().Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	return outputUserDetails(user)
}

func outputUserDetails(user *mapi.User) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(user)
	case OutputFormatYAML:
		return StandardYAMLRenderer(user)
	default:
		return renderUserDetailsTable(user)
	}
}

func renderUserDetailsTable(user *mapi.User) error {
	_, _ = os.Stdout.WriteString("User details:\n\n")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("Email", user.Email)
	_ = table.Append("ID", user.ID)

	if user.Name != "" {
		_ = table.Append("Name", user.Name)
	}

	_ = table.Append("Roles", strings.Join(user.Roles, ", "))

	status := "inactive"
	if user.Active {
		status = "active"
	}

	_ = table.Append("Status", status)

	if user.LastLoginAt != nil {
		_ = table.Append("Last Login", user.LastLoginAt.Format("2006-01-02 15:04:05"))
	}

	_ = table.Append("Created", user.CreatedAt.Format("2006-01-02 15:04:05"))
	_ = table.Append("Updated", user.UpdatedAt.Format("2006-01-02 15:04:05"))

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render user table: %w", err)
	}

	return nil
}

func newUsersAdminsCommand() *cobra.Command {
	var idsOnly bool

	cmd := &cobra.Command{
		Use:   "admins",
		Short: "List administrator users",
		Long:  "Scan every user page and list the accounts carrying the admin role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersAdminsCommand(idsOnly)
		},
	}

	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print administrator IDs only")

	return cmd
}

func runUsersAdminsCommand(idsOnly bool) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	var progress mapi.ProgressFunc
	if viper.GetBool("verbose") {
		progress = func(pages, items int) {
			_, _ = fmt.Fprintf(os.Stderr, "Scanned page %d (%d users)\n", pages, items)
		}
	}

	if idsOnly {
		ids, err := client.Users().AdminIDs(ctx, progress)
		if err != nil {
			return fmt.Errorf("failed to list administrator IDs: %w", err)
		}

		return outputAdminIDs(ids)
	}

	admins, err := client.Users().ListAdmins(ctx, progress)
	if err != nil {
		return fmt.Errorf("failed to list administrators: %w", err)
	}

	return outputUsers(admins, false, true)
}

func outputAdminIDs(ids []string) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(ids)
	case OutputFormatYAML:
		return StandardYAMLRenderer(ids)
	default:
		for _, id := range ids {
			_, _ = fmt.Fprintln(os.Stdout, id)
		}

		return nil
	}
}

func newUsersDeprecatePasswordCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "deprecate-password USER_ID",
		Short: "Deprecate a user's password",
		Long:  "Mark the user's password as deprecated so a new one must be chosen on next login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersDeprecatePasswordCommand(args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

func runUsersDeprecatePasswordCommand(userID string, force bool) error {
	prompt := fmt.Sprintf("Really deprecate the password for user '%s'?", userID)
	if !confirmAction(force, prompt) {
		return nil
	}

	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	err = client.Users().DeprecatePassword(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to deprecate password: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Successfully deprecated password for user '%s'\n", userID)
	_, _ = os.Stdout.WriteString("The user must choose a new password on next login\n")

	return nil
}
