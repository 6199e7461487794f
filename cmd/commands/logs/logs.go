package logs

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect and maintain the action log",
		Long: `Inspect and maintain the local action log.

The log is append-only: the orchestration core only ever adds entries.
Prune exists for operators reclaiming space on long-lived installs.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}
