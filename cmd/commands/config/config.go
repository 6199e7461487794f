package config

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persistent configuration",
		Long: `Manage persistent configuration.

Values are stored in a JSON file under the user config directory.`,
	}

	cmd.AddCommand(GetCommand())
	cmd.AddCommand(SetCommand())

	return cmd
}
