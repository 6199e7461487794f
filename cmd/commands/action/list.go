package action

import (
	"fmt"

	"bhmc/ggbridge/internal/phase"
	"bhmc/ggbridge/internal/registry"

	"github.com/spf13/cobra"
)

// ListCommand returns the "action list" command.
func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all integration actions by phase",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range phase.Table() {
				fmt.Fprintf(cmd.OutOrStdout(), "Phase %d: %s\n", p.Number, p.Title)
				for _, spec := range registry.ByPhase(p) {
					mode := "buffered"
					if spec.Streaming {
						mode = "streaming"
					}
					line := fmt.Sprintf("  %-22s %s", spec.Name, mode)
					if spec.Requires != "" {
						line += fmt.Sprintf("  (requires %s)", spec.Requires)
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
