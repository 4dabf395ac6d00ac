package marketdata

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"alphamind/internal/models"
)

// Base prices for the simulated feed, per symbol.
var simBasePrices = map[string]float64{
	"BTC/USD": 67500.0,
	"ETH/USD": 3650.0,
	"SOL/USD": 145.0,
	"EUR/USD": 1.0850,
	"GBP/USD": 1.2650,
	"USD/JPY": 149.50,
	"US30":    43250.0,
	"US100":   21450.0,
	"US500":   5950.0,
	"XAU/USD": 2650.50,
	"XAG/USD": 31.25,
	"ES":      5950.0,
	"NQ":      21450.0,
}

// SimProvider is a deterministic simulated market-data feed for paper
// use and tests. Candles are a seeded random walk around a per-symbol
// base price, so identical requests produce identical series.
type SimProvider struct {
	// Drift biases the walk; positive values trend the series upward.
	Drift float64
}

// NewSimProvider creates a simulated provider with a mild upward drift.
func NewSimProvider() *SimProvider {
	return &SimProvider{Drift: 0.0005}
}

func basePrice(symbol string) float64 {
	if p, ok := simBasePrices[symbol]; ok {
		return p
	}
	return 100.0
}

func symbolSeed(symbol, timeframe string) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte{'|'})
	h.Write([]byte(timeframe))
	return int64(h.Sum64())
}

// Candles generates n candles ending at the current hour boundary.
func (p *SimProvider) Candles(_ context.Context, symbol, timeframe string, n int) ([]models.Candle, error) {
	rng := rand.New(rand.NewSource(symbolSeed(symbol, timeframe)))
	price := basePrice(symbol)
	start := time.Now().UTC().Truncate(time.Hour).Add(-time.Duration(n) * time.Hour)

	candles := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		move := (rng.Float64()-0.5)*0.01 + p.Drift
		open := price
		close := open * (1 + move)
		hi := open
		if close > hi {
			hi = close
		}
		lo := open
		if close < lo {
			lo = close
		}
		hi *= 1 + rng.Float64()*0.002
		lo *= 1 - rng.Float64()*0.002

		candles = append(candles, models.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     hi,
			Low:      lo,
			Close:    close,
		})
		price = close
	}
	return candles, nil
}

// Price returns the close of the latest simulated candle.
func (p *SimProvider) Price(ctx context.Context, symbol string) (float64, error) {
	candles, err := p.Candles(ctx, symbol, "1h", 120)
	if err != nil {
		return 0, err
	}
	return candles[len(candles)-1].Close, nil
}
