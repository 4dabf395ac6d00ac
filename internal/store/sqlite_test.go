package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "alphamind/internal/errors"
	"alphamind/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTrade(id string, at time.Time) *models.Trade {
	return &models.Trade{
		ID:         id,
		SignalID:   "sig-" + id,
		Symbol:     "BTC/USD",
		Direction:  models.DirectionBuy,
		EntryPrice: 67500,
		Quantity:   0.5,
		StopLoss:   66000,
		TakeProfit: 70500,
		Strategy:   "structure",
		Status:     models.TradeStatusOpen,
		CreatedAt:  at,
	}
}

func TestSaveAndGetTrade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveTrade(ctx, sampleTrade("t1", created)))

	got, err := s.GetTrade(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USD", got.Symbol)
	assert.Equal(t, models.DirectionBuy, got.Direction)
	assert.Equal(t, models.TradeStatusOpen, got.Status)
	assert.Equal(t, 67500.0, got.EntryPrice)
	assert.True(t, got.ClosedAt.IsZero())
	assert.Empty(t, got.CloseReason)
}

func TestGetTradeNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTrade(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrTradeNotFound)
}

func TestUpdateTradeClose(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tr := sampleTrade("t1", created)
	require.NoError(t, s.SaveTrade(ctx, tr))

	tr.Status = models.TradeStatusClosed
	tr.ExitPrice = 70500
	tr.PnL = 1500
	tr.ClosedAt = created.Add(4 * time.Hour)
	tr.CloseReason = models.CloseTakeProfit
	require.NoError(t, s.UpdateTrade(ctx, tr))

	got, err := s.GetTrade(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusClosed, got.Status)
	assert.Equal(t, 70500.0, got.ExitPrice)
	assert.Equal(t, 1500.0, got.PnL)
	assert.Equal(t, models.CloseTakeProfit, got.CloseReason)
	assert.True(t, got.ClosedAt.Equal(created.Add(4*time.Hour)))
}

func TestUpdateTradeNotFound(t *testing.T) {
	s := newTestStore(t)

	tr := sampleTrade("ghost", time.Now().UTC())
	tr.Status = models.TradeStatusClosed
	assert.ErrorIs(t, s.UpdateTrade(context.Background(), tr), apperrors.ErrTradeNotFound)
}

func TestLoadTradesOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Inserted out of creation order.
	require.NoError(t, s.SaveTrade(ctx, sampleTrade("b", base.Add(time.Hour))))
	require.NoError(t, s.SaveTrade(ctx, sampleTrade("a", base)))
	require.NoError(t, s.SaveTrade(ctx, sampleTrade("c", base.Add(2*time.Hour))))

	trades, err := s.LoadTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "a", trades[0].ID)
	assert.Equal(t, "b", trades[1].ID)
	assert.Equal(t, "c", trades[2].ID)
}

func sampleSignal(id, symbol, strategy string, at time.Time) *models.Signal {
	return &models.Signal{
		ID:           id,
		Symbol:       symbol,
		Timeframe:    "1h",
		Class:        models.ClassCrypto,
		Mode:         models.ModeIntraday,
		Strategy:     strategy,
		Direction:    models.DirectionBuy,
		CurrentPrice: 67500,
		OptimalEntry: 67200,
		EntryType:    models.EntryMarket,
		StopLoss:     66000,
		TakeProfit1:  70500,
		RRRatio:      2.5,
		Confidence:   72,
		Structure: models.StructureSnapshot{
			Trend: models.TrendBullish,
			ATR:   450,
		},
		CreatedAt: at,
	}
}

func TestSaveAndGetSignals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveSignal(ctx, sampleSignal("s1", "BTC/USD", "structure", base)))
	require.NoError(t, s.SaveSignal(ctx, sampleSignal("s2", "EUR/USD", "structure", base.Add(time.Hour))))
	require.NoError(t, s.SaveSignal(ctx, sampleSignal("s3", "BTC/USD", "momentum", base.Add(2*time.Hour))))

	all, err := s.GetSignals(ctx, SignalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "s3", all[0].ID)

	// Structure snapshot survives the JSON round trip.
	assert.Equal(t, models.TrendBullish, all[0].Structure.Trend)
	assert.Equal(t, 450.0, all[0].Structure.ATR)

	bySymbol, err := s.GetSignals(ctx, SignalFilter{Symbol: "BTC/USD"})
	require.NoError(t, err)
	assert.Len(t, bySymbol, 2)

	byStrategy, err := s.GetSignals(ctx, SignalFilter{Symbol: "BTC/USD", Strategy: "momentum"})
	require.NoError(t, err)
	require.Len(t, byStrategy, 1)
	assert.Equal(t, "s3", byStrategy[0].ID)

	since, err := s.GetSignals(ctx, SignalFilter{Since: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	limited, err := s.GetSignals(ctx, SignalFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "s3", limited[0].ID)
}
