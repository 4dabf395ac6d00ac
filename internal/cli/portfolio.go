package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newPortfolioCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Portfolio summary and statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			snap := app.Portfolio.Snapshot()
			floating := app.Portfolio.FloatingPnL(cmd.Context())

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"balance":      snap.Balance,
					"total_pnl":    snap.TotalPnL,
					"floating_pnl": floating,
					"win_rate":     snap.WinRate,
					"total_trades": snap.TotalTrades,
					"open_trades":  snap.OpenTrades,
				})
			}

			output.Bold("Portfolio")
			output.Printf("  Balance:      %.2f\n", snap.Balance)
			output.Printf("  Realized PnL: %s\n", output.FormatPnL(snap.TotalPnL))
			output.Printf("  Floating PnL: %s\n", output.FormatPnL(floating))
			output.Printf("  Win Rate:     %.1f%%\n", snap.WinRate)
			output.Printf("  Trades:       %d (%d open)\n", snap.TotalTrades, snap.OpenTrades)
			return nil
		},
	}

	cmd.AddCommand(newEquityCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	return cmd
}

func newEquityCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "equity",
		Short: "Show the realized equity curve",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			curve := app.Portfolio.EquityCurve()
			if output.IsJSON() {
				return output.JSON(curve)
			}

			table := NewTable(output, "TIME", "EQUITY")
			for _, p := range curve {
				table.AddRow(p.Timestamp.Format(time.DateTime), formatFloat(p.Equity))
			}
			table.Render()
			return nil
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Per-strategy performance statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			stats := app.Portfolio.StrategyStats()
			if output.IsJSON() {
				return output.JSON(stats)
			}
			if len(stats) == 0 {
				output.Dim("No closed trades yet.")
				return nil
			}

			table := NewTable(output, "STRATEGY", "TRADES", "TOTAL PNL", "AVG PNL", "WIN RATE", "MAX WIN")
			for _, s := range stats {
				table.AddRow(
					s.Strategy,
					formatInt(s.Trades),
					output.FormatPnL(s.TotalPnL),
					output.FormatPnL(s.AvgPnL),
					output.FormatPercent(s.WinRate),
					formatFloat(s.MaxWin),
				)
			}
			table.Render()
			return nil
		},
	}
}
