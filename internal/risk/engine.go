// Package risk derives entry, stop and target levels from a structure
// snapshot, enforcing a minimum risk-reward ratio and mode-dependent
// stop distances.
package risk

import (
	"math"
	"sort"

	"alphamind/internal/config"
	"alphamind/internal/errors"
	"alphamind/internal/models"
)

// Levels is the output of one risk computation.
type Levels struct {
	Entry       float64
	EntryType   models.EntryType
	StopLoss    float64
	TakeProfit1 float64
	TakeProfit2 float64 // 0 when absent
	TakeProfit3 float64 // 0 when absent
	RRRatio     float64
	Confidence  float64
}

// Engine computes trade levels. It is stateless and safe for concurrent
// use.
type Engine struct {
	cfg config.RiskConfig
}

// NewEngine creates a risk engine with the given configuration.
func NewEngine(cfg config.RiskConfig) *Engine {
	return &Engine{cfg: cfg}
}

// ComputeLevels derives entry, stop-loss and take-profit levels for a
// direction and trading mode. The symbol is carried only for error
// context.
//
// The RR floor is enforced by extending the first target past nearer
// structural levels; when no level satisfies the floor the target falls
// back to floor x risk distance, stretched by the mode's target
// multiplier.
func (e *Engine) ComputeLevels(symbol string, snap models.StructureSnapshot, currentPrice float64, direction models.Direction, mode models.TradingMode) (Levels, error) {
	if direction == models.DirectionNeutral || direction == "" {
		return Levels{}, errors.NewSetupError(symbol, "direction is neutral")
	}
	if snap.ATR <= 0 {
		return Levels{}, errors.NewSetupError(symbol, "flat series: ATR is zero")
	}

	switch direction {
	case models.DirectionBuy:
		if !snap.HasSupport() {
			return Levels{}, errors.NewSetupError(symbol, "no support anchor below price")
		}
	case models.DirectionSell:
		if !snap.HasResistance() {
			return Levels{}, errors.NewSetupError(symbol, "no resistance anchor above price")
		}
	}

	mc := e.cfg.ModeFor(mode)
	entry, entryType := e.optimalEntry(snap, currentPrice, direction)

	stopDistance := snap.ATR * mc.StopMultiplier
	buffer := snap.ATR * e.cfg.StopBufferATR

	var stop float64
	if direction == models.DirectionBuy {
		// The wider of the structural stop and the volatility stop.
		stop = math.Min(snap.NearestSupport-buffer, entry-stopDistance)
	} else {
		stop = math.Max(snap.NearestResistance+buffer, entry+stopDistance)
	}

	riskDist := math.Abs(entry - stop)
	if riskDist <= 0 {
		return Levels{}, errors.NewSetupError(symbol, "degenerate stop distance")
	}

	tp1, tp2, tp3 := e.targets(snap, entry, riskDist, direction, mc)
	rewardDist := math.Abs(tp1 - entry)
	if rewardDist <= 0 {
		return Levels{}, errors.NewSetupError(symbol, "degenerate target distance")
	}

	levels := Levels{
		Entry:       entry,
		EntryType:   entryType,
		StopLoss:    stop,
		TakeProfit1: tp1,
		TakeProfit2: tp2,
		TakeProfit3: tp3,
		RRRatio:     rewardDist / riskDist,
	}
	levels.Confidence = e.confidence(snap, currentPrice, direction, levels)
	return levels, nil
}

// optimalEntry picks a limit entry at an order-block reaction zone when
// price position favors the direction, otherwise a market entry at the
// current price.
func (e *Engine) optimalEntry(snap models.StructureSnapshot, currentPrice float64, direction models.Direction) (float64, models.EntryType) {
	if direction == models.DirectionBuy && snap.PricePosition == models.PositionDiscount {
		if zone, ok := latestBlockZone(snap.OrderBlocks, models.BlockBullish); ok && zone < currentPrice {
			return zone, models.EntryLimit
		}
	}
	if direction == models.DirectionSell && snap.PricePosition == models.PositionPremium {
		if zone, ok := latestBlockZone(snap.OrderBlocks, models.BlockBearish); ok && zone > currentPrice {
			return zone, models.EntryLimit
		}
	}
	return currentPrice, models.EntryMarket
}

func latestBlockZone(blocks []models.OrderBlock, direction models.BlockDirection) (float64, bool) {
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Direction == direction {
			return blocks[i].EntryZone, true
		}
	}
	return 0, false
}

// targets returns up to three take-profit levels. The first target is
// the nearest structural level satisfying the RR floor; the remaining
// structural levels beyond it become the second and third targets.
func (e *Engine) targets(snap models.StructureSnapshot, entry, riskDist float64, direction models.Direction, mc config.ModeConfig) (tp1, tp2, tp3 float64) {
	floor := e.cfg.MinRiskReward
	levels := structuralTargets(snap.SwingPoints, entry, direction)

	var beyond []float64
	for _, lvl := range levels {
		if math.Abs(lvl-entry)/riskDist >= floor {
			beyond = append(beyond, lvl)
		}
	}

	if len(beyond) == 0 {
		// No structural level satisfies the floor: scale the distance.
		tp1 = entry + direction.Sign()*floor*riskDist*mc.TargetMultiplier
		return tp1, 0, 0
	}

	tp1 = beyond[0]
	if len(beyond) > 1 {
		tp2 = beyond[1]
	}
	if len(beyond) > 2 {
		tp3 = beyond[2]
	}
	return tp1, tp2, tp3
}

// structuralTargets returns swing levels on the profit side of entry,
// nearest first.
func structuralTargets(swings []models.SwingPoint, entry float64, direction models.Direction) []float64 {
	var levels []float64
	for _, s := range swings {
		if direction == models.DirectionBuy && s.Kind == models.SwingHigh && s.Price > entry {
			levels = append(levels, s.Price)
		}
		if direction == models.DirectionSell && s.Kind == models.SwingLow && s.Price < entry {
			levels = append(levels, s.Price)
		}
	}
	sort.Float64s(levels)
	if direction == models.DirectionSell {
		// Nearest first means descending for sells.
		for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
			levels[i], levels[j] = levels[j], levels[i]
		}
	}
	return levels
}

// confidence scores a setup from trend alignment, RR magnitude and the
// proximity of price to the optimal entry zone, clamped to [0,100].
// Tiers: >=80 A, >=65 B, else C (see models.TierFor).
func (e *Engine) confidence(snap models.StructureSnapshot, currentPrice float64, direction models.Direction, levels Levels) float64 {
	trendScore := 50.0
	switch {
	case direction == models.DirectionBuy && snap.Trend == models.TrendBullish,
		direction == models.DirectionSell && snap.Trend == models.TrendBearish:
		trendScore = 100
	case direction == models.DirectionBuy && snap.Trend == models.TrendBearish,
		direction == models.DirectionSell && snap.Trend == models.TrendBullish:
		trendScore = 0
	}

	// RR of 4:1 or better scores full marks.
	rrScore := math.Min(levels.RRRatio/4, 1) * 100

	// Proximity of current price to the entry zone, in ATR units.
	entryScore := (1 - math.Min(math.Abs(currentPrice-levels.Entry)/snap.ATR, 1)) * 100

	score := trendScore*e.cfg.TrendWeight + rrScore*e.cfg.RRWeight + entryScore*e.cfg.EntryWeight
	return math.Max(0, math.Min(100, score))
}
