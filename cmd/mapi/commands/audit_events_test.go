package commands_test

import (
	"testing"

	"github.com/parla-ai/mapi-client/cmd/mapi/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditEventsCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewAuditEventsCommand()
	assert.Equal(t, "audit-events", cmd.Use)
	assert.Equal(t, []string{"audit", "events", "ae"}, cmd.Aliases)
	assert.Equal(t, "Manage audit events", cmd.Short)
	assert.Equal(t, "View audit events for tracking system changes and user actions", cmd.Long)

	// Check subcommands are added
	subcommands := cmd.Commands()
	assert.Len(t, subcommands, 2)

	commandNames := make([]string, 0, len(subcommands))
	for _, subcmd := range subcommands {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "get")
}

func TestAuditEventsListCommandFlags(t *testing.T) {
	t.Parallel()

	listCmd := findSubcommand(commands.NewAuditEventsCommand(), "list")
	require.NotNil(t, listCmd)

	assert.NotNil(t, listCmd.Flags().Lookup("all"))
	assert.NotNil(t, listCmd.Flags().Lookup("limit"))
	assert.NotNil(t, listCmd.Flags().Lookup("max-pages"))
	assert.NotNil(t, listCmd.Flags().Lookup("type"))
	assert.NotNil(t, listCmd.Flags().Lookup("user"))
	assert.NotNil(t, listCmd.Flags().Lookup("from"))
	assert.NotNil(t, listCmd.Flags().Lookup("to"))
}

// Note: Tests for unexported functions (runAuditEventsList, buildAuditEventsParams)
// are not included since they cannot be accessed from the commands_test package.
// These functions are tested indirectly through the main command.
