package action

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Run and inspect integration actions",
		Long: `Run and inspect integration actions.

Actions execute against the tournament platform and every run is
recorded in the local action log.`,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(RunCommand())

	return cmd
}
