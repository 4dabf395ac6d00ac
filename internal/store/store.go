// Package store provides data persistence implementations.
package store

import (
	"context"
	"time"

	"alphamind/internal/models"
)

// DataStore is the persistence interface for trades and signals.
type DataStore interface {
	// Trades
	SaveTrade(ctx context.Context, t *models.Trade) error
	UpdateTrade(ctx context.Context, t *models.Trade) error
	LoadTrades(ctx context.Context) ([]*models.Trade, error)
	GetTrade(ctx context.Context, id string) (*models.Trade, error)

	// Signals
	SaveSignal(ctx context.Context, sig *models.Signal) error
	GetSignals(ctx context.Context, filter SignalFilter) ([]*models.Signal, error)

	Close() error
}

// SignalFilter narrows signal queries. Zero values match everything.
type SignalFilter struct {
	Symbol   string
	Strategy string
	Since    time.Time
	Limit    int
}
