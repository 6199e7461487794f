package cmd

import (
	"os"

	"bhmc/ggbridge/cmd/commands/action"
	"bhmc/ggbridge/cmd/commands/auth"
	cfgcmd "bhmc/ggbridge/cmd/commands/config"
	"bhmc/ggbridge/cmd/commands/dashboard"
	"bhmc/ggbridge/cmd/commands/logs"
	"bhmc/ggbridge/cmd/commands/serve"
	"bhmc/ggbridge/internal/registry"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "ggbridge",
		Short: "Bridge between club event administration and the tournament platform",
		Long: `ggbridge keeps a golf club's event data in sync with the external
tournament platform. Every integration action is recorded in a local
append-only log, and an event's workflow phase is derived from that
log rather than stored.

Quick start:
  ggbridge auth login              # Store your platform API key
  ggbridge dashboard 42            # Interactive phase dashboard for event 42
  ggbridge action run "Sync Event" --event 42
  ggbridge serve                   # Expose the HTTP API for the club frontend`,
	}

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(action.NewCommand())
	cmd.AddCommand(logs.NewCommand())
	cmd.AddCommand(serve.NewCommand())
	cmd.AddCommand(dashboard.NewCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	registry.RegisterDefaults()

	var root = rootCmd()
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
