package risk

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphamind/internal/config"
	apperrors "alphamind/internal/errors"
	"alphamind/internal/models"
)

func testEngine() *Engine {
	return NewEngine(config.Default().Risk)
}

func bullishSnapshot() models.StructureSnapshot {
	return models.StructureSnapshot{
		Trend:             models.TrendBullish,
		PricePosition:     models.PositionEquilibrium,
		NearestSupport:    97,
		NearestResistance: 110,
		ATR:               2,
		SwingPoints: []models.SwingPoint{
			{Index: 10, Price: 96, Kind: models.SwingLow},
			{Index: 15, Price: 106, Kind: models.SwingHigh},
			{Index: 20, Price: 97, Kind: models.SwingLow},
			{Index: 25, Price: 110, Kind: models.SwingHigh},
			{Index: 30, Price: 120, Kind: models.SwingHigh},
		},
	}
}

func TestComputeLevelsBuy(t *testing.T) {
	e := testEngine()

	levels, err := e.ComputeLevels("BTC/USD", bullishSnapshot(), 100, models.DirectionBuy, models.ModeIntraday)
	require.NoError(t, err)

	// Market entry: equilibrium position, no discount zone.
	assert.Equal(t, models.EntryMarket, levels.EntryType)
	assert.Equal(t, 100.0, levels.Entry)

	// Stop is the wider of support-buffer (97-0.2) and entry-ATR (98).
	assert.InDelta(t, 96.8, levels.StopLoss, 1e-9)

	// Stop strictly below entry, first target strictly above.
	assert.Less(t, levels.StopLoss, levels.Entry)
	assert.Greater(t, levels.TakeProfit1, levels.Entry)

	// RR floor holds.
	assert.GreaterOrEqual(t, levels.RRRatio, e.cfg.MinRiskReward-1e-9)
}

func TestComputeLevelsSell(t *testing.T) {
	e := testEngine()
	snap := models.StructureSnapshot{
		Trend:             models.TrendBearish,
		PricePosition:     models.PositionEquilibrium,
		NearestSupport:    80,
		NearestResistance: 103,
		ATR:               2,
		SwingPoints: []models.SwingPoint{
			{Index: 10, Price: 103, Kind: models.SwingHigh},
			{Index: 15, Price: 90, Kind: models.SwingLow},
			{Index: 20, Price: 80, Kind: models.SwingLow},
		},
	}

	levels, err := e.ComputeLevels("EUR/USD", snap, 100, models.DirectionSell, models.ModeIntraday)
	require.NoError(t, err)

	assert.Greater(t, levels.StopLoss, levels.Entry)
	assert.Less(t, levels.TakeProfit1, levels.Entry)
	assert.GreaterOrEqual(t, levels.RRRatio, e.cfg.MinRiskReward-1e-9)
}

func TestComputeLevelsNeutralDirection(t *testing.T) {
	e := testEngine()
	_, err := e.ComputeLevels("BTC/USD", bullishSnapshot(), 100, models.DirectionNeutral, models.ModeIntraday)
	assert.ErrorIs(t, err, apperrors.ErrNoValidSetup)
}

func TestComputeLevelsFlatSeries(t *testing.T) {
	e := testEngine()
	snap := bullishSnapshot()
	snap.ATR = 0
	_, err := e.ComputeLevels("BTC/USD", snap, 100, models.DirectionBuy, models.ModeIntraday)
	assert.ErrorIs(t, err, apperrors.ErrNoValidSetup)
}

func TestComputeLevelsMissingAnchor(t *testing.T) {
	e := testEngine()

	snap := bullishSnapshot()
	snap.NearestSupport = 0
	_, err := e.ComputeLevels("BTC/USD", snap, 100, models.DirectionBuy, models.ModeIntraday)
	assert.ErrorIs(t, err, apperrors.ErrNoValidSetup)

	snap = bullishSnapshot()
	snap.NearestResistance = 0
	_, err = e.ComputeLevels("BTC/USD", snap, 100, models.DirectionSell, models.ModeIntraday)
	assert.ErrorIs(t, err, apperrors.ErrNoValidSetup)
}

func TestTargetFallbackScalesToFloor(t *testing.T) {
	e := testEngine()

	// No swing high clears the RR floor, so tp1 scales to exactly
	// floor x risk distance (intraday target multiplier is 1.0).
	snap := bullishSnapshot()
	snap.SwingPoints = []models.SwingPoint{
		{Index: 10, Price: 97, Kind: models.SwingLow},
		{Index: 15, Price: 101, Kind: models.SwingHigh},
	}

	levels, err := e.ComputeLevels("BTC/USD", snap, 100, models.DirectionBuy, models.ModeIntraday)
	require.NoError(t, err)

	riskDist := levels.Entry - levels.StopLoss
	assert.InDelta(t, levels.Entry+e.cfg.MinRiskReward*riskDist, levels.TakeProfit1, 1e-9)
	assert.Zero(t, levels.TakeProfit2)
	assert.Zero(t, levels.TakeProfit3)

	// Swing mode stretches the fallback by its target multiplier, so
	// the resulting RR sits above the floor.
	swing, err := e.ComputeLevels("BTC/USD", snap, 100, models.DirectionBuy, models.ModeSwing)
	require.NoError(t, err)

	mc := e.cfg.ModeFor(models.ModeSwing)
	swingRisk := swing.Entry - swing.StopLoss
	assert.InDelta(t, swing.Entry+e.cfg.MinRiskReward*swingRisk*mc.TargetMultiplier, swing.TakeProfit1, 1e-9)
	assert.InDelta(t, e.cfg.MinRiskReward*mc.TargetMultiplier, swing.RRRatio, 1e-9)
}

func TestModeWidensStop(t *testing.T) {
	e := testEngine()
	snap := bullishSnapshot()

	scalp, err := e.ComputeLevels("BTC/USD", snap, 100, models.DirectionBuy, models.ModeScalping)
	require.NoError(t, err)
	swing, err := e.ComputeLevels("BTC/USD", snap, 100, models.DirectionBuy, models.ModeSwing)
	require.NoError(t, err)

	// Swing mode never sets a tighter stop than scalping.
	assert.LessOrEqual(t, swing.StopLoss, scalp.StopLoss)
}

func TestLimitEntryFromOrderBlock(t *testing.T) {
	e := testEngine()
	snap := bullishSnapshot()
	snap.PricePosition = models.PositionDiscount
	snap.OrderBlocks = []models.OrderBlock{
		{EntryZone: 98.5, Direction: models.BlockBullish, OriginIndex: 22},
	}

	levels, err := e.ComputeLevels("BTC/USD", snap, 100, models.DirectionBuy, models.ModeIntraday)
	require.NoError(t, err)

	assert.Equal(t, models.EntryLimit, levels.EntryType)
	assert.InDelta(t, 98.5, levels.Entry, 1e-9)
	assert.Less(t, levels.StopLoss, levels.Entry)
}

// For any geometry that produces levels, the stop is strictly on the
// loss side of entry and the first target satisfies the RR floor.
func TestLevelInvariantsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	e := testEngine()

	properties.Property("buy levels keep stop below entry and honor the floor", prop.ForAll(
		func(price, atr, supportGap float64) bool {
			snap := models.StructureSnapshot{
				Trend:          models.TrendBullish,
				PricePosition:  models.PositionEquilibrium,
				NearestSupport: price - supportGap,
				ATR:            atr,
				SwingPoints: []models.SwingPoint{
					{Index: 5, Price: price - supportGap, Kind: models.SwingLow},
					{Index: 9, Price: price * 1.5, Kind: models.SwingHigh},
				},
			}
			levels, err := e.ComputeLevels("X", snap, price, models.DirectionBuy, models.ModeIntraday)
			if err != nil {
				return true
			}
			if levels.StopLoss >= levels.Entry {
				return false
			}
			if levels.TakeProfit1 <= levels.Entry {
				return false
			}
			return levels.RRRatio >= e.cfg.MinRiskReward-1e-9
		},
		gen.Float64Range(10, 10_000),
		gen.Float64Range(0.01, 100),
		gen.Float64Range(0.01, 500),
	))

	properties.TestingRun(t)
}
