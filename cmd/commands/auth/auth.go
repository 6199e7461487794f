package auth

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the tournament platform credential",
		Long: `Manage the tournament platform credential.

Use this command group to store and inspect the API key kept in the
local keychain.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(StatusCommand())
	cmd.AddCommand(LogoutCommand())

	return cmd
}
