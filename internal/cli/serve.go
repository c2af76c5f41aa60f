package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trade-journal/internal/api"
)

func addServeCommand(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the journal as a JSON API",
		Long: `Serve the journal over HTTP until interrupted.

Endpoints live under /api: summary, trades, groups/:dimension, equity,
calendar/:year/:month, year/:year, goals/:granularity and achievements.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Config.Server.Addr
			}
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(svc, app.Logger, app.Config.Server.Mode)
			return server.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	rootCmd.AddCommand(cmd)
}
