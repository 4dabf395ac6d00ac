package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"alphamind/internal/models"
	"alphamind/internal/signal"
	"alphamind/internal/trading"
)

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Manage trades",
		Long:  "Open trades from signals, close them and list the ledger.",
	}

	cmd.AddCommand(newTradeOpenCmd(app))
	cmd.AddCommand(newTradeCloseCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeMonitorCmd(app))
	return cmd
}

func newTradeOpenCmd(app *App) *cobra.Command {
	var quantity, stopLoss, takeProfit float64
	var timeframe, market, mode, strategy string

	cmd := &cobra.Command{
		Use:   "open <symbol>",
		Short: "Generate a signal and open a trade from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			sig, err := app.Signals.Generate(cmd.Context(), signal.Request{
				Symbol:     args[0],
				Timeframe:  timeframe,
				MarketType: market,
				Mode:       models.TradingMode(mode),
				Strategy:   strategy,
			})
			if err != nil {
				return err
			}

			trade, err := app.Ledger.Open(cmd.Context(), trading.OpenRequest{
				Signal:   &sig,
				Quantity: quantity,
				StopLoss: stopLoss,
				TakeProf: takeProfit,
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Opened %s %s qty %.4f at %.4f", trade.Symbol, trade.Direction, trade.Quantity, trade.EntryPrice)
			output.Printf("  Stop: %.4f  Target: %.4f\n", trade.StopLoss, trade.TakeProfit)
			output.Dim("  id %s", trade.ID)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&quantity, "quantity", "q", 1, "position size")
	cmd.Flags().Float64Var(&stopLoss, "stop", 0, "override stop loss")
	cmd.Flags().Float64Var(&takeProfit, "target", 0, "override take profit")
	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "1h", "candle timeframe")
	cmd.Flags().StringVarP(&market, "market", "m", "crypto", "market type")
	cmd.Flags().StringVar(&mode, "mode", "intraday", "trading mode")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "structure", "strategy tag")
	return cmd
}

func newTradeCloseCmd(app *App) *cobra.Command {
	var price float64
	var atMarket bool

	cmd := &cobra.Command{
		Use:   "close <trade-id>",
		Short: "Close an open trade",
		Long: `Close a trade manually at a given price, or at the current market
price with --market.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			reason := models.CloseManual
			if atMarket {
				reason = models.CloseMarket
			}

			trade, err := app.Ledger.Close(cmd.Context(), args[0], reason, price)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("Closed %s at %.4f", trade.Symbol, trade.ExitPrice)
			output.Printf("  PnL: %s  Reason: %s\n", output.FormatPnL(trade.PnL), trade.CloseReason)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&price, "price", "p", 0, "close price (manual close)")
	cmd.Flags().BoolVar(&atMarket, "market", false, "close at current market price")
	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			var trades []*models.Trade
			switch status {
			case "open":
				trades = app.Ledger.OpenTrades()
			case "closed":
				trades = app.Ledger.ClosedTrades()
			default:
				trades = app.Ledger.Trades()
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Dim("No trades.")
				return nil
			}

			table := NewTable(output, "ID", "SYMBOL", "SIDE", "QTY", "ENTRY", "STATUS", "PNL", "OPENED")
			for _, t := range trades {
				pnl := ""
				if t.Status == models.TradeStatusClosed {
					pnl = output.FormatPnL(t.PnL)
				} else {
					price, err := app.Data.Price(cmd.Context(), t.Symbol)
					if err == nil {
						pnl = output.FormatPnL(t.FloatingPnL(price)) + " (floating)"
					}
				}
				table.AddRow(
					shortID(t.ID),
					t.Symbol,
					output.Direction(string(t.Direction)),
					formatFloat(t.Quantity),
					formatFloat(t.EntryPrice),
					string(t.Status),
					pnl,
					t.CreatedAt.Format(time.DateTime),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (open, closed)")
	return cmd
}

func newTradeMonitorCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Check open trades against live prices once",
		Long: `Monitor fetches a live price for every open trade and closes those
whose stop loss or take profit level was crossed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			closed := app.Ledger.MonitorOpen(cmd.Context())
			if output.IsJSON() {
				return output.JSON(closed)
			}
			if len(closed) == 0 {
				output.Dim("No exits triggered.")
				return nil
			}
			for _, t := range closed {
				output.Info("%s closed by %s: %s", t.Symbol, t.CloseReason, output.FormatPnL(t.PnL))
			}
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}
