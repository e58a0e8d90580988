package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/parla-ai/mapi-client/internal/constants"
	"github.com/parla-ai/mapi-client/pkg/mapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewProjectsCommand creates the projects command group.
func NewProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
		Long:    "List, inspect, and delete projects through the API-key surface",
	}

	cmd.AddCommand(newProjectsListCommand())
	cmd.AddCommand(newProjectsGetCommand())
	cmd.AddCommand(newProjectsDeleteCommand())

	return cmd
}

func newProjectsListCommand() *cobra.Command {
	var (
		allPages bool
		limit    int
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Long:  "List the projects visible to the configured API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsListCommand(allPages, limit, maxPages)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&limit, "limit", constants.DefaultPageSize, "results per page")
	cmd.Flags().IntVar(&maxPages, "max-pages", constants.DefaultMaxPages, "page bound when fetching all pages")

	return cmd
}

func runProjectsListCommand(allPages bool, limit, maxPages int) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	projects, truncated, err := fetchListPages(ctx, client.Projects().ListPage, nil, allPages, limit, maxPages)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	return outputProjects(projects, truncated, allPages)
}

func outputProjects(projects []mapi.Project, truncated, allPages bool) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(projects)
	case OutputFormatYAML:
		return StandardYAMLRenderer(projects)
	default:
		err := renderProjectTable(projects)
		if err != nil {
			return err
		}

		printMoreResultsHint(truncated, allPages)

		return nil
	}
}

func renderProjectTable(projects []mapi.Project) error {
	if len(projects) == 0 {
		_, _ = os.Stdout.WriteString("No projects found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Name", "ID", "Organisation", "Created")

	for _, project := range projects {
		_ = table.Append(project.Name, project.ID,
			valueOrNotAvailable(project.Organisation),
			project.CreatedAt.Format("2006-01-02"))
	}

	_ = table.Render()

	return nil
}

func newProjectsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PROJECT_ID",
		Short: "Get project details",
		Long:  "Display detailed information about a specific project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsGetCommand(args[0])
		},
	}
}

func runProjectsGetCommand(projectID string) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	project, err := client.Projects().Get(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}

	return outputProjectDetails(project)
}

func outputProjectDetails(project *mapi.Project) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(project)
	case OutputFormatYAML:
		return StandardYAMLRenderer(project)
	default:
		return renderProjectDetailsTable(project)
	}
}

func renderProjectDetailsTable(project *mapi.Project) error {
	_, _ = os.Stdout.WriteString("Project details:\n\n")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("Name", project.Name)
	_ = table.Append("ID", project.ID)
	_ = table.Append("Organisation", valueOrNotAvailable(project.Organisation))
	_ = table.Append("Created", project.CreatedAt.Format("2006-01-02 15:04:05"))
	_ = table.Append("Updated", project.UpdatedAt.Format("2006-01-02 15:04:05"))

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render project table: %w", err)
	}

	return nil
}

func newProjectsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete PROJECT_ID",
		Short: "Delete a project",
		Long:  "Delete a project and everything stored under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectsDeleteCommand(args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

func runProjectsDeleteCommand(projectID string, force bool) error {
	prompt := fmt.Sprintf("Really delete project '%s'?", projectID)
	if !confirmAction(force, prompt) {
		return nil
	}

	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	err = client.Projects().Delete(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Successfully deleted project '%s'\n", projectID)

	return nil
}
