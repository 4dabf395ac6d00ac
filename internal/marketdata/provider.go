// Package marketdata defines the market-data collaborator interface and
// a resilient client with stale-price fallback.
package marketdata

import (
	"context"

	"alphamind/internal/models"
)

// Provider supplies normalized candles and live prices for instruments.
// Implementations wrap an external feed; the core only depends on this
// interface.
type Provider interface {
	// Candles returns up to n most recent closed candles for the
	// symbol and timeframe, oldest first.
	Candles(ctx context.Context, symbol, timeframe string, n int) ([]models.Candle, error)

	// Price returns the current live price for the symbol.
	Price(ctx context.Context, symbol string) (float64, error)
}
