package action

import (
	"fmt"

	"bhmc/ggbridge/internal/app"
	"bhmc/ggbridge/internal/domain"
	"bhmc/ggbridge/internal/orchestrator"
	"bhmc/ggbridge/internal/registry"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// RunCommand returns the "action run" command.
func RunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <action>",
		Short: "Run one integration action for an event",
		Long: `Run one integration action for an event.

Streaming actions print progress as the platform reports it. The run's
outcome is appended to the action log either way.

Examples:
  ggbridge action run "Sync Event" --event 42
  ggbridge action run "Import Scores" --event 42`,
		Args:         cobra.ExactArgs(1),
		RunE:         runAction,
		SilenceUsage: true,
	}

	cmd.Flags().Int64("event", 0, "Event ID to act on (required)")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt for Close Event")
	cmd.MarkFlagRequired("event")

	return cmd
}

func runAction(cmd *cobra.Command, args []string) error {
	eventID, _ := cmd.Flags().GetInt64("event")
	if eventID <= 0 {
		return fmt.Errorf("event id must be a positive number")
	}
	name := domain.ActionName(args[0])
	if _, err := registry.Lookup(name); err != nil {
		return err
	}

	// Closing an event locks it on the platform side; confirm first.
	if name == domain.ActionCloseEvent {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			confirmed := false
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Close event %d?", eventID)).
					Description("The event cannot be modified on the platform afterwards.").
					Value(&confirmed),
			))
			if err := form.Run(); err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}
	}

	a, err := app.Build()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Orch.Start(cmd.Context(), eventID, name)
	if err != nil {
		return err
	}

	if res.Progress == nil {
		return printOutcome(cmd, name, res.Entry.IsSuccessful, res.Entry.Details)
	}

	frames, err := res.Progress.Subscribe()
	if err != nil {
		return err
	}

	var last domain.ProgressEvent
	for frame := range frames {
		last = frame
		if line := progressLine(frame); line != "" {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
	}

	ok := last.Status == domain.ProgressComplete
	details := string(last.Result)
	if !ok && details == "" {
		details = last.Message
	}
	return printOutcome(cmd, name, ok, details)
}

func printOutcome(cmd *cobra.Command, name domain.ActionName, ok bool, details string) error {
	if !ok {
		if n := orchestrator.CountErrors(details); n > 0 {
			return fmt.Errorf("%s failed with %d errors", name, n)
		}
		return fmt.Errorf("%s failed", name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s completed\n", name)
	return nil
}

func progressLine(f domain.ProgressEvent) string {
	switch {
	case f.TotalPlayers != nil && f.ProcessedPlayers != nil:
		return fmt.Sprintf("  %d/%d players", *f.ProcessedPlayers, *f.TotalPlayers)
	case f.TotalTournaments != nil && f.ProcessedTournaments != nil:
		return fmt.Sprintf("  %d/%d tournaments", *f.ProcessedTournaments, *f.TotalTournaments)
	case f.Message != "":
		return "  " + f.Message
	}
	return ""
}
