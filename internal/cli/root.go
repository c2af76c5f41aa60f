// Package cli provides the command-line interface for the trade journal.
package cli

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trade-journal/internal/cache"
	"trade-journal/internal/config"
	"trade-journal/internal/journal"
	"trade-journal/internal/logging"
	"trade-journal/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies. The store and journal are
// opened on first use so that config commands work without storage.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Store   store.DocumentStore
	Cache   *cache.Cache
	Journal *journal.Service

	// Now is the command clock; tests pin it.
	Now func() time.Time
}

// journal opens the configured store and journal service.
func (app *App) journal(ctx context.Context) (*journal.Service, error) {
	if app.Journal != nil {
		return app.Journal, nil
	}

	st, err := store.Open(ctx, app.Config, app.Logger)
	if err != nil {
		return nil, err
	}
	app.Store = st

	c, err := cache.New(app.Config.Analytics.CacheMaxCost, app.Config.Analytics.CacheTTL)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("Analytics cache disabled")
	}
	app.Cache = c

	app.Journal = journal.New(st, journal.Options{
		Key:                    app.Config.Journal.Key,
		DefaultStartingCapital: app.Config.Journal.DefaultStartingCapital,
		Resolver:               app.Config.Resolver(),
		MinGroupTrades:         app.Config.Analytics.MinGroupTrades,
		Cache:                  c,
		Logger:                 app.Logger,
		Now:                    app.Now,
	})
	app.Logger.Debug().
		Str("backend", st.Backend()).
		Str("journal", app.Config.Journal.Key).
		Msg("Journal opened")
	return app.Journal, nil
}

// close releases the store and cache.
func (app *App) close() {
	if app.Cache != nil {
		app.Cache.Close()
		app.Cache = nil
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			app.Logger.Warn().Err(err).Msg("Failed to close store")
		}
		app.Store = nil
	}
	app.Journal = nil
}

// NewRootCmd creates the root command for the CLI. Configuration is
// loaded from --config (or the default directory) before any subcommand
// runs.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{Now: time.Now, Logger: zerolog.Nop()})
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradejournal",
		Short: "Trade journal - record trades, track goals, review performance",
		Long: `Trade journal records closed trades and turns them into performance analytics.

It computes P/L and R-multiples per trade, breaks results down by strategy,
direction, mental state, weekday, hour and symbol, draws equity curves and
monthly calendars, and tracks daily, weekly, monthly and yearly profit goals.

Use 'tradejournal <command> --help' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			app.Config = cfg
			app.Logger = logging.NewLoggerWithConfig(cfg.LogConfig())

			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trade-journal)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addTradeCommands(rootCmd, app)
	addGoalCommands(rootCmd, app)
	addStatsCommands(rootCmd, app)
	addTransferCommands(rootCmd, app)
	addServeCommand(rootCmd, app)
	addHelpCommands(rootCmd)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Trade Journal v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				cfg := *app.Config
				cfg.Storage.DSN = logging.RedactDSN(cfg.Storage.DSN)
				return output.JSON(cfg)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := config.ConfigFile(app.Config.Dir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Journal")
	output.Printf("  Key:              %s\n", cfg.Journal.Key)
	output.Printf("  Starting Capital: %s\n", output.Money(cfg.Journal.DefaultStartingCapital))
	output.Printf("  Currency:         %s\n", cfg.Journal.CurrencySymbol)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Backend:          %s\n", cfg.Storage.Backend)
	if cfg.Storage.Backend == config.BackendPostgres {
		output.Printf("  DSN:              %s\n", logging.RedactDSN(cfg.Storage.DSN))
	} else {
		output.Printf("  Path:             %s\n", cfg.StoragePath())
	}
	output.Println()

	output.Bold("Calendar")
	output.Printf("  Week Start:       %s\n", cfg.WeekStart())
	output.Printf("  Timezone:         %s\n", cfg.Calendar.Timezone)
	output.Println()

	output.Bold("Analytics")
	output.Printf("  Min Group Trades: %d\n", cfg.Analytics.MinGroupTrades)
	output.Printf("  Cache TTL:        %s\n", cfg.Analytics.CacheTTL)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:          %s\n", cfg.Server.Addr)
	output.Printf("  Mode:             %s\n", cfg.Server.Mode)
}
