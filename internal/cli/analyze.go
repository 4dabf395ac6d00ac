package cli

import (
	"github.com/spf13/cobra"

	"alphamind/internal/analysis/structure"
	"alphamind/internal/models"
	"alphamind/pkg/utils"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	var timeframe string
	var market string

	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Analyze market structure for a symbol",
		Long: `Analyze fetches recent candles and reports the market structure:
trend, price position relative to the swing range, nearest unbroken
support and resistance, order blocks and the last break of structure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := args[0]
			output := NewOutput(cmd)

			candles, err := app.Data.Candles(cmd.Context(), symbol, timeframe, app.Config.Analysis.MinBars*4)
			if err != nil {
				return err
			}

			analyzer := structure.NewAnalyzer(app.Config.Analysis)
			snap, err := analyzer.Analyze(symbol, candles)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(snap)
			}

			class, _ := models.ParseInstrumentClass(market)
			output.Bold("Structure: %s (%s)", symbol, timeframe)
			output.Printf("  Trend:       %s\n", trendColored(output, snap.Trend))
			output.Printf("  Position:    %s\n", snap.PricePosition)
			if snap.HasSupport() {
				output.Printf("  Support:     %s\n", utils.FormatPrice(snap.NearestSupport, class))
			}
			if snap.HasResistance() {
				output.Printf("  Resistance:  %s\n", utils.FormatPrice(snap.NearestResistance, class))
			}
			output.Printf("  ATR:         %s\n", utils.FormatPrice(snap.ATR, class))
			output.Printf("  Swings:      %d\n", len(snap.SwingPoints))
			output.Printf("  Order Blocks: %d\n", len(snap.OrderBlocks))
			if snap.LastBOS != nil {
				output.Printf("  Last BOS:    %s at %s\n", snap.LastBOS.Direction, utils.FormatPrice(snap.LastBOS.Level, class))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeframe, "timeframe", "t", "1h", "candle timeframe")
	cmd.Flags().StringVarP(&market, "market", "m", "crypto", "market type (crypto, forex, indices, metals, futures)")
	return cmd
}

func trendColored(output *Output, trend models.Trend) string {
	switch trend {
	case models.TrendBullish:
		return output.Green(string(trend))
	case models.TrendBearish:
		return output.Red(string(trend))
	}
	return output.Yellow(string(trend))
}
