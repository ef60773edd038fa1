// cmd_show.go - Show Command
// Fragt einen laufenden "embedforge serve" ueber den api-Client ab
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ollama/embedforge/api"
)

// ShowHandler - Holt den Plan (oder eine Tabelle) vom Server und gibt ihn aus
func ShowHandler(cmd *cobra.Command, args []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		t, err := client.Table(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), t)
	}

	plan, err := client.Plan(cmd.Context())
	if err != nil {
		return fmt.Errorf("could not reach embedforge server: %w", err)
	}

	return writePlan(cmd, plan)
}

// newShowCmd - Erstellt den show Command
func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show [TABLE]",
		Short: "Show the plan served by a running embedforge",
		Args:  cobra.MaximumNArgs(1),
		RunE:  ShowHandler,
	}

	showCmd.Flags().String("format", "", "Output format (json, table)")

	return showCmd
}
