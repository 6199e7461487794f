package config

import (
	"fmt"
	"strings"

	"bhmc/ggbridge/internal/config"
	"bhmc/ggbridge/internal/util"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  ggbridge config set listen-addr :9090\n" +
			"  ggbridge config set provider-timeout 60",
		Args:         cobra.ExactArgs(2),
		RunE:         runSet,
		SilenceUsage: true,
	}

	return cmd
}

func runSet(cmd *cobra.Command, args []string) error {
	spec := config.Lookup(util.NormalizeKey(args[0]))
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", args[0], strings.Join(config.KeyNames(), ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Values like URLs and addresses are case-sensitive; only trim.
	value := strings.TrimSpace(args[1])
	spec.Set(cfg, value)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, spec.Get(cfg))
	return nil
}
