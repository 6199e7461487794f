package logs

import (
	"fmt"
	"time"

	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/intlog"
	"bhmc/ggbridge/internal/orchestrator"

	"github.com/spf13/cobra"
)

// ListCommand returns the "logs list" command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List log entries for an event",
		Long: `List log entries for an event, newest first.

Examples:
  ggbridge logs list --event 42
  ggbridge logs list --event 42 --action "Import Scores"`,
		Args:         cobra.ExactArgs(0),
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int64("event", 0, "Event ID (required)")
	cmd.Flags().String("action", "", "Narrow the listing to one action")
	cmd.MarkFlagRequired("event")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	eventID, _ := cmd.Flags().GetInt64("event")
	if eventID <= 0 {
		return fmt.Errorf("event id must be a positive number")
	}
	actionFlag, _ := cmd.Flags().GetString("action")

	repo, err := intlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.ListByEvent(eventID, domain.ActionName(actionFlag))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no entries")
		return nil
	}

	for _, e := range entries {
		outcome := "ok"
		if !e.IsSuccessful {
			outcome = "FAILED"
			if n := orchestrator.CountErrors(e.Details); n > 0 {
				outcome = fmt.Sprintf("FAILED (%d errors)", n)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-22s %s\n",
			e.ActionDate.Local().Format(time.DateTime), e.ActionName, outcome)
	}
	return nil
}
