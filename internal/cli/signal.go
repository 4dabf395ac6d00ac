package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"alphamind/internal/models"
	"alphamind/internal/signal"
	"alphamind/pkg/utils"
)

func newSignalCmd(app *App) *cobra.Command {
	var timeframe, market, mode, strategy string

	cmd := &cobra.Command{
		Use:   "signal <symbol> [symbol...]",
		Short: "Generate trade signals",
		Long: `Signal analyzes structure for each symbol and derives a trade setup:
direction, optimal entry, stop loss, tiered targets and a confidence
score. Symbols without a valid setup report the reason instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			reqs := make([]signal.Request, 0, len(args))
			for _, symbol := range args {
				reqs = append(reqs, signal.Request{
					Symbol:     symbol,
					Timeframe:  timeframe,
					MarketType: market,
					Mode:       models.TradingMode(mode),
					Strategy:   strategy,
				})
			}

			results := app.Signals.GenerateBatch(cmd.Context(), reqs)

			if output.IsJSON() {
				return output.JSON(results)
			}

			for _, res := range results {
				if res.Err != nil {
					output.Warning("%s: %v", res.Request.Symbol, res.Err)
					continue
				}
				printSignal(output, res.Signal)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "1h", "candle timeframe")
	cmd.Flags().StringVarP(&market, "market", "m", "crypto", "market type")
	cmd.Flags().StringVar(&mode, "mode", "intraday", "trading mode (scalping, intraday, swing)")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "structure", "strategy tag")
	return cmd
}

func printSignal(output *Output, sig models.Signal) {
	output.Println()
	output.Bold("%s  %s  [Tier %s]", sig.Symbol, output.Direction(string(sig.Direction)), sig.Tier())
	output.Printf("  Entry:      %s (%s)\n", utils.FormatPrice(sig.OptimalEntry, sig.Class), sig.EntryType)
	output.Printf("  Stop Loss:  %s\n", utils.FormatPrice(sig.StopLoss, sig.Class))
	output.Printf("  Target 1:   %s\n", utils.FormatPrice(sig.TakeProfit1, sig.Class))
	if sig.TakeProfit2 > 0 {
		output.Printf("  Target 2:   %s\n", utils.FormatPrice(sig.TakeProfit2, sig.Class))
	}
	if sig.TakeProfit3 > 0 {
		output.Printf("  Target 3:   %s\n", utils.FormatPrice(sig.TakeProfit3, sig.Class))
	}
	output.Printf("  R:R:        %s\n", utils.FormatRR(sig.RRRatio))
	output.Printf("  Confidence: %.0f%%\n", sig.Confidence)
	output.Dim(fmt.Sprintf("  id %s", sig.ID))
}
