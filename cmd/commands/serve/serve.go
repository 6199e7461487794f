package serve

import (
	"context"
	"os/signal"
	"syscall"

	"bhmc/ggbridge/internal/app"
	"bhmc/ggbridge/internal/server"

	"github.com/spf13/cobra"
)

// NewCommand returns the "serve" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the integration HTTP API",
		Long: `Serve the integration HTTP API for the club's event frontend.

The API exposes log queries, derived phase views, action starts, and
SSE progress streams. It shuts down cleanly on SIGINT/SIGTERM.

Example:
  ggbridge serve --addr :8475`,
		Args:         cobra.ExactArgs(0),
		RunE:         runServe,
		SilenceUsage: true,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides listen-addr config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := app.Build()
	if err != nil {
		return err
	}
	defer a.Close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.Cfg.Addr()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := server.NewHandler(a.Orch, a.Logger)
	return server.New(addr, h, a.Logger).Run(ctx)
}
