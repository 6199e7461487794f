package logs

import (
	"fmt"
	"time"

	"bhmc/ggbridge/internal/intlog"

	"github.com/spf13/cobra"
)

// PruneCommand returns the "logs prune" command.
func PruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete log entries older than a cutoff",
		Long: `Delete log entries older than a cutoff.

Pruned entries no longer count toward phase derivation, so keep at
least the lifetime of your open events.

Example:
  ggbridge logs prune --older-than 8760h     # one year`,
		Args:         cobra.ExactArgs(0),
		RunE:         runPrune,
		SilenceUsage: true,
	}

	cmd.Flags().Duration("older-than", 0, "Age cutoff, e.g. 720h (required)")
	cmd.MarkFlagRequired("older-than")

	return cmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	cutoff, _ := cmd.Flags().GetDuration("older-than")
	if cutoff <= 0 {
		return fmt.Errorf("cutoff must be a positive duration")
	}
	if cutoff < 24*time.Hour {
		return fmt.Errorf("refusing a cutoff under 24h; the log drives phase derivation")
	}

	repo, err := intlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	n, err := repo.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", n)
	return nil
}
