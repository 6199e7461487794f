package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"bhmc/ggbridge/internal/app"
	"bhmc/ggbridge/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// NewCommand returns the "dashboard" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard [event-id]",
		Short: "Open the interactive phase dashboard for an event",
		Long: `Open the interactive phase dashboard for an event.

The dashboard shows the event's derived phase, lets you browse other
phases, and runs actions in place with live progress.

Example:
  ggbridge dashboard 42`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runDashboard,
		SilenceUsage: true,
	}

	return cmd
}

func runDashboard(cmd *cobra.Command, args []string) error {
	var eventID int64
	if len(args) == 1 {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("event id must be a positive number")
		}
		eventID = n
	} else {
		var raw string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Event ID").
				Description("Which event should the dashboard show?").
				Validate(func(s string) error {
					n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
					if err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number")
					}
					return nil
				}).
				Value(&raw),
		))
		if err := form.Run(); err != nil {
			return err
		}
		eventID, _ = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	}

	a, err := app.Build()
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.RunDashboard(a.Orch, eventID)
}
