package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"alphamind/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve exposes signal generation, the trade ledger and portfolio views
over HTTP, plus a websocket price stream at /ws/prices. The server runs
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				app.Config.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hub := server.NewHub(app.Data, app.Logger)
			srv := server.New(app.Config, app.Signals, app.Ledger, app.Portfolio, hub, app.Logger)

			// Background exit monitoring while serving.
			go monitorLoop(ctx, app)

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func monitorLoop(ctx context.Context, app *App) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.Ledger.MonitorOpen(ctx)
		}
	}
}
