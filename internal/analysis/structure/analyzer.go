// Package structure reads market structure from candle series: swing
// points, trend, support/resistance, order blocks and breaks of
// structure.
package structure

import (
	"math"

	"alphamind/internal/analysis/indicators"
	"alphamind/internal/config"
	"alphamind/internal/errors"
	"alphamind/internal/models"
)

// Fibonacci band boundaries for discount/premium classification.
const (
	discountBand = 0.382
	premiumBand  = 0.618
)

// Analyzer derives a StructureSnapshot from a candle series. It is
// stateless: every call is a pure function of its input and analyzers
// may be shared across goroutines.
type Analyzer struct {
	minBars     int
	swingWindow int
	atrPeriod   int
	impulseBars int
}

// NewAnalyzer creates an analyzer with the given analysis parameters.
func NewAnalyzer(cfg config.AnalysisConfig) *Analyzer {
	return &Analyzer{
		minBars:     cfg.MinBars,
		swingWindow: cfg.SwingWindow,
		atrPeriod:   cfg.ATRPeriod,
		impulseBars: cfg.ImpulseBars,
	}
}

// Analyze computes a full structure snapshot for the series. The symbol
// is carried only for error context.
func (a *Analyzer) Analyze(symbol string, candles []models.Candle) (models.StructureSnapshot, error) {
	if len(candles) < a.minBars {
		return models.StructureSnapshot{}, errors.NewInsufficientDataError(symbol, a.minBars, len(candles))
	}
	if err := models.ValidateSeries(candles); err != nil {
		return models.StructureSnapshot{}, errors.NewDataError("candles", symbol, "invalid series", err)
	}

	swings := a.findSwingPoints(candles)

	atr, err := indicators.NewATR(a.atrPeriod).Last(candles)
	if err != nil {
		return models.StructureSnapshot{}, errors.NewDataError("candles", symbol, "atr", err)
	}

	trend := classifyTrend(swings)
	currentPrice := candles[len(candles)-1].Close

	snapshot := models.StructureSnapshot{
		Trend:             trend,
		PricePosition:     classifyPricePosition(swings, currentPrice),
		NearestSupport:    nearestUnbrokenSupport(candles, swings, currentPrice),
		NearestResistance: nearestUnbrokenResistance(candles, swings, currentPrice),
		ATR:               atr,
		SwingPoints:       swings,
		OrderBlocks:       a.findOrderBlocks(candles),
		LastBOS:           findLastBOS(candles, swings, trend),
	}
	return snapshot, nil
}

// findSwingPoints scans for local extrema over a symmetric window and
// reduces consecutive same-kind swings to the most extreme one.
func (a *Analyzer) findSwingPoints(candles []models.Candle) []models.SwingPoint {
	var raw []models.SwingPoint
	n := len(candles)
	k := a.swingWindow

	for i := k; i < n-k; i++ {
		isHigh := true
		for j := 1; j <= k; j++ {
			if candles[i].High <= candles[i-j].High || candles[i].High <= candles[i+j].High {
				isHigh = false
				break
			}
		}
		if isHigh {
			raw = append(raw, models.SwingPoint{Index: i, Price: candles[i].High, Kind: models.SwingHigh})
			continue
		}

		isLow := true
		for j := 1; j <= k; j++ {
			if candles[i].Low >= candles[i-j].Low || candles[i].Low >= candles[i+j].Low {
				isLow = false
				break
			}
		}
		if isLow {
			raw = append(raw, models.SwingPoint{Index: i, Price: candles[i].Low, Kind: models.SwingLow})
		}
	}

	return reduceSameKindRuns(raw)
}

// reduceSameKindRuns keeps only the most extreme swing of each
// consecutive same-kind run.
func reduceSameKindRuns(swings []models.SwingPoint) []models.SwingPoint {
	if len(swings) == 0 {
		return nil
	}

	reduced := []models.SwingPoint{swings[0]}
	for _, s := range swings[1:] {
		last := &reduced[len(reduced)-1]
		if s.Kind != last.Kind {
			reduced = append(reduced, s)
			continue
		}
		if s.Kind == models.SwingHigh && s.Price > last.Price {
			*last = s
		}
		if s.Kind == models.SwingLow && s.Price < last.Price {
			*last = s
		}
	}
	return reduced
}

// classifyTrend compares the two most recent swing highs and lows.
// Rising highs and lows mean BULLISH, falling mean BEARISH, anything
// else is RANGING.
func classifyTrend(swings []models.SwingPoint) models.Trend {
	var highs, lows []float64
	for _, s := range swings {
		if s.Kind == models.SwingHigh {
			highs = append(highs, s.Price)
		} else {
			lows = append(lows, s.Price)
		}
	}

	if len(highs) < 2 || len(lows) < 2 {
		return models.TrendRanging
	}

	hh := highs[len(highs)-1] > highs[len(highs)-2]
	hl := lows[len(lows)-1] > lows[len(lows)-2]
	lh := highs[len(highs)-1] < highs[len(highs)-2]
	ll := lows[len(lows)-1] < lows[len(lows)-2]

	switch {
	case hh && hl:
		return models.TrendBullish
	case lh && ll:
		return models.TrendBearish
	default:
		return models.TrendRanging
	}
}

// classifyPricePosition locates price inside the Fibonacci range of the
// most recent swing high and low. A degenerate range classifies as
// EQUILIBRIUM.
func classifyPricePosition(swings []models.SwingPoint, price float64) models.PricePosition {
	var lastHigh, lastLow float64
	for _, s := range swings {
		if s.Kind == models.SwingHigh {
			lastHigh = s.Price
		} else {
			lastLow = s.Price
		}
	}

	if lastHigh <= lastLow || lastHigh == 0 || lastLow == 0 {
		return models.PositionEquilibrium
	}

	pos := (price - lastLow) / (lastHigh - lastLow)
	switch {
	case pos <= discountBand:
		return models.PositionDiscount
	case pos >= premiumBand:
		return models.PositionPremium
	default:
		return models.PositionEquilibrium
	}
}

// nearestUnbrokenSupport returns the closest swing low below price that
// no subsequent candle has closed below. Zero when none exists.
func nearestUnbrokenSupport(candles []models.Candle, swings []models.SwingPoint, price float64) float64 {
	best := 0.0
	bestDist := math.MaxFloat64
	for _, s := range swings {
		if s.Kind != models.SwingLow || s.Price >= price {
			continue
		}
		if levelBroken(candles, s.Index, s.Price, false) {
			continue
		}
		if d := price - s.Price; d < bestDist {
			bestDist = d
			best = s.Price
		}
	}
	return best
}

// nearestUnbrokenResistance returns the closest swing high above price
// that no subsequent candle has closed above. Zero when none exists.
func nearestUnbrokenResistance(candles []models.Candle, swings []models.SwingPoint, price float64) float64 {
	best := 0.0
	bestDist := math.MaxFloat64
	for _, s := range swings {
		if s.Kind != models.SwingHigh || s.Price <= price {
			continue
		}
		if levelBroken(candles, s.Index, s.Price, true) {
			continue
		}
		if d := s.Price - price; d < bestDist {
			bestDist = d
			best = s.Price
		}
	}
	return best
}

// levelBroken reports whether any close after index lies beyond the
// level: above it for resistance, below it for support.
func levelBroken(candles []models.Candle, index int, level float64, resistance bool) bool {
	for i := index + 1; i < len(candles); i++ {
		if resistance && candles[i].Close > level {
			return true
		}
		if !resistance && candles[i].Close < level {
			return true
		}
	}
	return false
}

// candleColor returns +1 for a bullish candle, -1 for bearish, 0 for a
// doji.
func candleColor(c models.Candle) int {
	switch {
	case c.Bullish():
		return 1
	case c.Bearish():
		return -1
	default:
		return 0
	}
}

// findOrderBlocks finds the last opposite-color candle before each run
// of impulseBars or more same-direction candles.
func (a *Analyzer) findOrderBlocks(candles []models.Candle) []models.OrderBlock {
	var blocks []models.OrderBlock
	n := len(candles)

	i := 1
	for i < n {
		color := candleColor(candles[i])
		if color == 0 {
			i++
			continue
		}

		runStart := i
		for i < n && candleColor(candles[i]) == color {
			i++
		}

		if i-runStart < a.impulseBars {
			continue
		}

		// The block is the candle just before the impulse and must be
		// the opposite color.
		block := candles[runStart-1]
		if candleColor(block) != -color {
			continue
		}

		direction := models.BlockBearish
		if color > 0 {
			direction = models.BlockBullish
		}
		blocks = append(blocks, models.OrderBlock{
			EntryZone:   (block.Open + block.Close) / 2,
			Direction:   direction,
			OriginIndex: runStart - 1,
		})
	}

	return blocks
}

// findLastBOS finds the most recent close beyond a swing point in the
// direction of the prevailing trend. A ranging market has no BOS.
func findLastBOS(candles []models.Candle, swings []models.SwingPoint, trend models.Trend) *models.BOSEvent {
	if trend == models.TrendRanging {
		return nil
	}

	var last *models.BOSEvent
	for _, s := range swings {
		if trend == models.TrendBullish && s.Kind != models.SwingHigh {
			continue
		}
		if trend == models.TrendBearish && s.Kind != models.SwingLow {
			continue
		}

		for i := s.Index + 1; i < len(candles); i++ {
			if trend == models.TrendBullish && candles[i].Close > s.Price {
				if last == nil || i > last.Index {
					last = &models.BOSEvent{Level: s.Price, Direction: models.DirectionBuy, Index: i}
				}
				break
			}
			if trend == models.TrendBearish && candles[i].Close < s.Price {
				if last == nil || i > last.Index {
					last = &models.BOSEvent{Level: s.Price, Direction: models.DirectionSell, Index: i}
				}
				break
			}
		}
	}
	return last
}
