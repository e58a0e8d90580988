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

// NewAuditEventsCommand creates the audit events command group.
func NewAuditEventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "audit-events",
		Aliases: []string{"audit", "events", "ae"},
		Short:   "Manage audit events",
		Long:    "View audit events for tracking system changes and user actions",
	}

	cmd.AddCommand(newAuditEventsListCommand())
	cmd.AddCommand(newAuditEventsGetCommand())

	return cmd
}

func newAuditEventsListCommand() *cobra.Command {
	var (
		allPages   bool
		limit      int
		maxPages   int
		eventTypes []string
		userID     string
		startTime  string
		endTime    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit events",
		Long:  "List audit events with optional filtering",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := &auditEventFilters{
				allPages:   allPages,
				limit:      limit,
				maxPages:   maxPages,
				eventTypes: eventTypes,
				userID:     userID,
				startTime:  startTime,
				endTime:    endTime,
			}

			return runAuditEventsList(filters)
		},
	}

	cmd.Flags().BoolVar(&allPages, "all", false, "fetch all pages")
	cmd.Flags().IntVar(&limit, "limit", constants.DefaultPageSize, "results per page")
	cmd.Flags().IntVar(&maxPages, "max-pages", constants.DefaultMaxPages, "page bound when fetching all pages")
	cmd.Flags().StringSliceVar(&eventTypes, "type", nil, "filter by event types (comma-separated)")
	cmd.Flags().StringVar(&userID, "user", "", "filter by user ID")
	cmd.Flags().StringVar(&startTime, "from", "", "filter events after this time (RFC3339 format)")
	cmd.Flags().StringVar(&endTime, "to", "", "filter events before this time (RFC3339 format)")

	return cmd
}

type auditEventFilters struct {
	allPages   bool
	limit      int
	maxPages   int
	eventTypes []string
	userID     string
	startTime  string
	endTime    string
}

func runAuditEventsList(filters *auditEventFilters) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	params := buildAuditEventsParams(filters)

	events, truncated, err := fetchListPages(ctx, client.AuditEvents().ListPage, params,
		filters.allPages, filters.limit, filters.maxPages)
	if err != nil {
		return fmt.Errorf("failed to list audit events: %w", err)
	}

	return outputAuditEventsList(events, truncated, filters.allPages)
}

func buildAuditEventsParams(filters *auditEventFilters) *mapi.QueryParams {
	params := mapi.NewQueryParams()

	addStringSliceFilter(params, "type", filters.eventTypes)
	addStringFilter(params, "user", filters.userID)
	addStringFilter(params, "from", filters.startTime)
	addStringFilter(params, "to", filters.endTime)

	return params
}

func addStringSliceFilter(params *mapi.QueryParams, filterName string, values []string) {
	if len(values) > 0 {
		params.WithFilter(filterName, strings.Join(values, ","))
	}
}

func addStringFilter(params *mapi.QueryParams, filterName, value string) {
	if value != "" {
		params.WithFilter(filterName, value)
	}
}

func outputAuditEventsList(events []mapi.AuditEvent, truncated, allPages bool) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(events)
	case OutputFormatYAML:
		return StandardYAMLRenderer(events)
	default:
		err := renderAuditEventsTable(events)
		if err != nil {
			return err
		}

		printMoreResultsHint(truncated, allPages)

		return nil
	}
}

func renderAuditEventsTable(events []mapi.AuditEvent) error {
	if len(events) == 0 {
		_, _ = os.Stdout.WriteString("No audit events found\n")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Type", "User", "Organisation", "Timestamp")

	for _, event := range events {
		_ = table.Append(
			event.ID,
			event.Type,
			valueOrNotAvailable(event.User),
			valueOrNotAvailable(event.Organisation),
			event.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	_ = table.Render()

	return nil
}

func newAuditEventsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get EVENT_ID",
		Short: "Get audit event details",
		Long:  "Display detailed information about a specific audit event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditEventsGet(args[0])
		},
	}
}

func runAuditEventsGet(eventID string) error {
	client, err := CreateClientFromConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	event, err := client.AuditEvents().Get(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get audit event: %w", err)
	}

	return outputAuditEventDetails(event)
}

func outputAuditEventDetails(event *mapi.AuditEvent) error {
	output := viper.GetString("output")
	switch output {
	case OutputFormatJSON:
		return StandardJSONRenderer(event)
	case OutputFormatYAML:
		return StandardYAMLRenderer(event)
	default:
		return outputAuditEventDetailsTable(event)
	}
}

func outputAuditEventDetailsTable(event *mapi.AuditEvent) error {
	printEventBasicInfo(event)
	printEventContext(event)
	printEventPayload(event.Payload)

	return nil
}

func printEventBasicInfo(event *mapi.AuditEvent) {
	_, _ = fmt.Fprintf(os.Stdout, "Audit Event: %s\n", event.ID)
	_, _ = fmt.Fprintf(os.Stdout, "  Type: %s\n", event.Type)
	_, _ = fmt.Fprintf(os.Stdout, "  Timestamp: %s\n", event.Timestamp.Format("2006-01-02 15:04:05"))
	_, _ = os.Stdout.WriteString("\n")
}

func printEventContext(event *mapi.AuditEvent) {
	if event.User == "" && event.Organisation == "" && event.IPAddress == "" {
		return
	}

	_, _ = os.Stdout.WriteString("Context:\n")

	if event.User != "" {
		_, _ = fmt.Fprintf(os.Stdout, "  User: %s\n", event.User)
	}

	if event.Organisation != "" {
		_, _ = fmt.Fprintf(os.Stdout, "  Organisation: %s\n", event.Organisation)
	}

	if event.IPAddress != "" {
		_, _ = fmt.Fprintf(os.Stdout, "  IP Address: %s\n", event.IPAddress)
	}

	_, _ = os.Stdout.WriteString("\n")
}

func printEventPayload(payload map[string]interface{}) {
	if len(payload) == 0 {
		return
	}

	_, _ = os.Stdout.WriteString("Payload:\n")

	for key, value := range payload {
		printEventPayloadValue(key, value, "  ")
	}
}

func printEventPayloadValue(key string, value interface{}, indent string) {
	if valueMap, ok := value.(map[string]interface{}); ok {
		_, _ = fmt.Fprintf(os.Stdout, "%s%s:\n", indent, key)

		for subKey, subValue := range valueMap {
			printEventPayloadValue(subKey, subValue, indent+"  ")
		}
	} else {
		_, _ = fmt.Fprintf(os.Stdout, "%s%s: %v\n", indent, key, value)
	}
}
