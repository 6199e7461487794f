package auth

import (
	"errors"
	"fmt"

	"bhmc/ggbridge/internal/services/auth"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a platform API key is stored",
		Long: `Show whether a tournament platform API key is stored.

Example:
  ggbridge auth status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := auth.DefaultStore()

			_, err := store.GetKey(auth.ProviderGenius)
			switch {
			case err == nil:
				fmt.Fprintln(cmd.OutOrStdout(), "logged in")
			case errors.Is(err, auth.ErrKeyNotFound):
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
			default:
				return err
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored platform API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := auth.DefaultStore()
			if err := store.DeleteKey(auth.ProviderGenius); err != nil {
				if errors.Is(err, auth.ErrKeyNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "no key stored")
					return nil
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed platform API key")
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
