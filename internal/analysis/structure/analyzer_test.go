package structure

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphamind/internal/config"
	apperrors "alphamind/internal/errors"
	"alphamind/internal/models"
)

func testAnalyzer() *Analyzer {
	return NewAnalyzer(config.Default().Analysis)
}

// zigzagCandles builds a rising triangle wave: period 10 bars with an
// amplitude of 5, drifting up by drift per bar. Peaks and troughs form
// clean swing highs and lows.
func zigzagCandles(n int, drift float64) []models.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	closeAt := func(i int) float64 {
		phase := i % 10
		offset := float64(phase)
		if phase > 5 {
			offset = float64(10 - phase)
		}
		return 100 + drift*float64(i) + offset
	}

	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		close := closeAt(i)
		move := close - closeAt(i-1)
		if i == 0 {
			move = 0
		}
		open := close - move/2
		hi := open
		if close > hi {
			hi = close
		}
		lo := open
		if close < lo {
			lo = close
		}
		candles[i] = models.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     hi + 0.05,
			Low:      lo - 0.05,
			Close:    close,
		}
	}
	return candles
}

func TestAnalyzeUptrend(t *testing.T) {
	a := testAnalyzer()

	snap, err := a.Analyze("BTC/USD", zigzagCandles(50, 0.8))
	require.NoError(t, err)

	assert.Equal(t, models.TrendBullish, snap.Trend)
	assert.Greater(t, snap.ATR, 0.0)
	assert.NotEmpty(t, snap.SwingPoints)

	// Rising lows are never closed below, so a support anchor exists
	// under the final price.
	require.True(t, snap.HasSupport())
	lastClose := 100 + 0.8*49 + 1 // phase 9
	assert.Less(t, snap.NearestSupport, lastClose)

	// An uptrend breaks prior swing highs on the way up.
	require.NotNil(t, snap.LastBOS)
	assert.Equal(t, models.DirectionBuy, snap.LastBOS.Direction)
}

func TestAnalyzeDowntrend(t *testing.T) {
	a := testAnalyzer()

	up := zigzagCandles(50, 0.8)
	// Mirror the series vertically to get falling highs and lows.
	down := make([]models.Candle, len(up))
	for i, c := range up {
		down[i] = models.Candle{
			OpenTime: c.OpenTime,
			Open:     300 - c.Open,
			High:     300 - c.Low,
			Low:      300 - c.High,
			Close:    300 - c.Close,
		}
	}

	snap, err := a.Analyze("EUR/USD", down)
	require.NoError(t, err)

	assert.Equal(t, models.TrendBearish, snap.Trend)
	require.NotNil(t, snap.LastBOS)
	assert.Equal(t, models.DirectionSell, snap.LastBOS.Direction)
}

func TestAnalyzeInsufficientData(t *testing.T) {
	a := testAnalyzer()

	_, err := a.Analyze("BTC/USD", zigzagCandles(10, 0.5))
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)

	var ide *apperrors.InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 30, ide.Need)
	assert.Equal(t, 10, ide.Got)
}

func TestAnalyzeRejectsInvalidSeries(t *testing.T) {
	a := testAnalyzer()

	candles := zigzagCandles(40, 0.5)
	candles[20].High = candles[20].Low - 1

	_, err := a.Analyze("BTC/USD", candles)
	assert.Error(t, err)
}

func TestReduceSameKindRuns(t *testing.T) {
	swings := []models.SwingPoint{
		{Index: 3, Price: 105, Kind: models.SwingHigh},
		{Index: 6, Price: 108, Kind: models.SwingHigh},
		{Index: 9, Price: 98, Kind: models.SwingLow},
		{Index: 12, Price: 96, Kind: models.SwingLow},
		{Index: 15, Price: 112, Kind: models.SwingHigh},
	}

	reduced := reduceSameKindRuns(swings)
	require.Len(t, reduced, 3)
	assert.Equal(t, 108.0, reduced[0].Price)
	assert.Equal(t, 96.0, reduced[1].Price)
	assert.Equal(t, 112.0, reduced[2].Price)
}

func TestFindOrderBlocksUptrendImpulse(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bar := func(i int, o, c float64) models.Candle {
		hi := o
		if c > hi {
			hi = c
		}
		lo := o
		if c < lo {
			lo = c
		}
		return models.Candle{OpenTime: start.Add(time.Duration(i) * time.Hour), Open: o, High: hi + 0.1, Low: lo - 0.1, Close: c}
	}

	// One bearish candle, then a three-bar bullish impulse.
	candles := []models.Candle{
		bar(0, 100, 101),
		bar(1, 101, 99), // the order block
		bar(2, 99, 102),
		bar(3, 102, 105),
		bar(4, 105, 108),
	}

	a := testAnalyzer()
	blocks := a.findOrderBlocks(candles)
	require.Len(t, blocks, 1)
	assert.Equal(t, models.BlockBullish, blocks[0].Direction)
	assert.Equal(t, 1, blocks[0].OriginIndex)
	assert.InDelta(t, 100.0, blocks[0].EntryZone, 1e-9)
}

// A swing high is strictly greater than every candle high inside its
// window; a swing low strictly smaller than every low.
func TestSwingExtremumProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	a := testAnalyzer()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	k := config.Default().Analysis.SwingWindow

	properties.Property("raw swings are window extrema", prop.ForAll(
		func(moves []float64) bool {
			candles := make([]models.Candle, len(moves))
			price := 100.0
			for i, m := range moves {
				open := price
				close := open + m
				hi := open
				if close > hi {
					hi = close
				}
				lo := open
				if close < lo {
					lo = close
				}
				candles[i] = models.Candle{
					OpenTime: start.Add(time.Duration(i) * time.Hour),
					Open:     open, High: hi + 0.01, Low: lo - 0.01, Close: close,
				}
				price = close
			}

			for _, s := range a.findSwingPoints(candles) {
				for j := 1; j <= k; j++ {
					if s.Kind == models.SwingHigh {
						if candles[s.Index].High <= candles[s.Index-j].High ||
							candles[s.Index].High <= candles[s.Index+j].High {
							return false
						}
					} else {
						if candles[s.Index].Low >= candles[s.Index-j].Low ||
							candles[s.Index].Low >= candles[s.Index+j].Low {
							return false
						}
					}
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(-3, 3)),
	))

	properties.TestingRun(t)
}
