package indicators

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphamind/internal/models"
)

func constantRangeCandles(n int, rng float64) []models.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     100,
			High:     100 + rng,
			Low:      100,
			Close:    100 + rng/2,
		}
	}
	return candles
}

func TestATRConstantRange(t *testing.T) {
	// With every bar spanning the same range and closes inside it, the
	// true range is constant, so ATR converges to exactly that range.
	atr := NewATR(14)
	last, err := atr.Last(constantRangeCandles(50, 2.0))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, last, 1e-9)
}

func TestATRInsufficientData(t *testing.T) {
	atr := NewATR(14)
	_, err := atr.Calculate(constantRangeCandles(14, 1.0))
	assert.ErrorIs(t, err, ErrInsufficientData)

	// period+1 candles is the minimum
	_, err = atr.Calculate(constantRangeCandles(15, 1.0))
	assert.NoError(t, err)
}

func TestATRInvalidPeriod(t *testing.T) {
	atr := NewATR(0)
	_, err := atr.Calculate(constantRangeCandles(20, 1.0))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

// ATR is never negative for any valid candle series.
func TestATRNonNegativeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("ATR values are non-negative", prop.ForAll(
		func(moves []float64) bool {
			if len(moves) < 20 {
				return true
			}
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
					Open:     open, High: hi, Low: lo, Close: close,
				}
				price = close
			}

			values, err := NewATR(14).Calculate(candles)
			if err != nil {
				return false
			}
			for _, v := range values {
				if v < 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.Float64Range(-5, 5)),
	))

	properties.TestingRun(t)
}
