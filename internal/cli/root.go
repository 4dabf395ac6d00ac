package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"alphamind/internal/config"
	"alphamind/internal/logging"
	"alphamind/internal/marketdata"
	"alphamind/internal/signal"
	"alphamind/internal/store"
	"alphamind/internal/trading"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     store.DataStore
	Data      *marketdata.Client
	Signals   *signal.Service
	Ledger    *trading.Ledger
	Portfolio *trading.Portfolio
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := config.DefaultConfigDir() + "/alphamind.db"
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("store unavailable, trades will not persist")
	} else {
		app.Store = dataStore
	}

	app.Data = marketdata.NewClient(marketdata.NewSimProvider(), cfg.Data, logger)
	app.Signals = signal.NewService(cfg, app.Data, app.Store, logger)
	app.Ledger = trading.NewLedger(app.Store, app.Data, logger)
	app.Portfolio = trading.NewPortfolio(app.Ledger, cfg.Portfolio.InitialCapital)

	rootCmd := &cobra.Command{
		Use:   "alphamind",
		Short: "AlphaMind - structure-based signal and trade engine",
		Long: `AlphaMind analyzes market structure on OHLC candles, derives trade
signals with structure-anchored stops and targets, and tracks the full
trade lifecycle through a paper portfolio.

Use 'alphamind help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			if app.Store != nil {
				if err := app.Ledger.Restore(cmd.Context()); err != nil {
					app.Logger.Warn().Err(err).Msg("could not restore trades")
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/alphamind)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newSignalCmd(app))
	rootCmd.AddCommand(newTradeCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("AlphaMind v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
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
	output.Bold("Analysis")
	output.Printf("  Min Bars:        %d\n", cfg.Analysis.MinBars)
	output.Printf("  Swing Window:    %d\n", cfg.Analysis.SwingWindow)
	output.Printf("  ATR Period:      %d\n", cfg.Analysis.ATRPeriod)
	output.Println()

	output.Bold("Risk")
	output.Printf("  Min Risk/Reward: %.1f\n", cfg.Risk.MinRiskReward)
	for mode, mc := range cfg.Risk.Modes {
		output.Printf("  %-15s stop %.1fx ATR, target %.1fx\n", mode, mc.StopMultiplier, mc.TargetMultiplier)
	}
	output.Println()

	output.Bold("Bot")
	output.Printf("  Auto Execute:    %v (threshold %.0f)\n", cfg.Bot.AutoExecute, cfg.Bot.AutoExecuteThreshold)
	output.Printf("  Max Daily Trades: %d\n", cfg.Bot.MaxDailyTrades)
	output.Printf("  Risk Per Trade:  %.1f%%\n", cfg.Bot.RiskPerTrade*100)
	output.Println()

	output.Bold("Portfolio")
	output.Printf("  Initial Capital: %.2f\n", cfg.Portfolio.InitialCapital)
}
