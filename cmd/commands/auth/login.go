package auth

import (
	"fmt"
	"strings"

	"bhmc/ggbridge/internal/services/auth"
	"bhmc/ggbridge/internal/tui"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the tournament platform API key",
		Long: `Store the tournament platform API key using the local keychain.

Without --key an interactive prompt opens.

Example:
  ggbridge auth login`,
		Args: cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := cmd.Flags().GetString("key")
			if err != nil {
				return err
			}

			store := auth.DefaultStore()
			key = strings.TrimSpace(key)
			if key == "" {
				result, err := tui.RunAuthLogin(auth.ProviderGenius, store)
				if err != nil {
					return fmt.Errorf("auth login failed: %w", err)
				}
				if result == nil || !result.Saved {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Saved platform API key")
				return nil
			}

			if err := store.SetKey(auth.ProviderGenius, key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved platform API key")
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("key", "", "API key (optional, overrides prompt)")

	return cmd
}
