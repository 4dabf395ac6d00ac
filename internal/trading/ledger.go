// Package trading manages the trade lifecycle: opening positions from
// signals, closing them under one of the supported policies, and
// aggregating portfolio state.
package trading

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "alphamind/internal/errors"
	"alphamind/internal/logging"
	"alphamind/internal/models"
)

// TradeStore persists trades. The ledger keeps its own in-memory view;
// the store is the durable record.
type TradeStore interface {
	SaveTrade(ctx context.Context, t *models.Trade) error
	UpdateTrade(ctx context.Context, t *models.Trade) error
	LoadTrades(ctx context.Context) ([]*models.Trade, error)
}

// PriceSource supplies a live price for a symbol.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// OpenRequest carries the caller's overrides when opening a trade from
// a signal. Zero values fall back to the signal's levels.
type OpenRequest struct {
	Signal   *models.Signal
	Quantity float64
	StopLoss float64
	TakeProf float64
}

// Ledger is the single writer for trade state. Every transition runs
// under one mutex so a trade closes exactly once.
type Ledger struct {
	mu     sync.RWMutex
	trades map[string]*models.Trade
	order  []string

	store  TradeStore
	prices PriceSource
	logger zerolog.Logger
}

// NewLedger creates a ledger backed by the given store and price
// source. Either may be nil for in-memory paper use.
func NewLedger(store TradeStore, prices PriceSource, logger zerolog.Logger) *Ledger {
	return &Ledger{
		trades: make(map[string]*models.Trade),
		store:  store,
		prices: prices,
		logger: logger,
	}
}

// Restore loads previously persisted trades into the ledger. Called
// once at startup, before any concurrent use.
func (l *Ledger) Restore(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	trades, err := l.store.LoadTrades(ctx)
	if err != nil {
		return apperrors.Wrap(err, "restoring trades")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range trades {
		l.trades[t.ID] = t
		l.order = append(l.order, t.ID)
	}
	return nil
}

// Open creates an OPEN trade from a signal. The entry price is the
// live price at confirmation time, not the signal's optimal entry; the
// fill happens now, at the market.
func (l *Ledger) Open(ctx context.Context, req OpenRequest) (*models.Trade, error) {
	sig := req.Signal
	if sig == nil || sig.Direction == models.DirectionNeutral {
		return nil, &apperrors.ValidationError{Field: "signal", Message: "missing or neutral direction"}
	}
	if req.Quantity <= 0 {
		return nil, &apperrors.ValidationError{Field: "quantity", Message: "must be positive"}
	}

	entry := sig.CurrentPrice
	if l.prices != nil {
		p, err := l.prices.Price(ctx, sig.Symbol)
		if err != nil {
			return nil, err
		}
		entry = p
	}

	stop := req.StopLoss
	if stop == 0 {
		stop = sig.StopLoss
	}
	target := req.TakeProf
	if target == 0 {
		target = sig.TakeProfit1
	}

	t := &models.Trade{
		ID:         uuid.NewString(),
		SignalID:   sig.ID,
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		EntryPrice: entry,
		Quantity:   req.Quantity,
		StopLoss:   stop,
		TakeProfit: target,
		Strategy:   sig.Strategy,
		Status:     models.TradeStatusOpen,
		CreatedAt:  time.Now().UTC(),
	}

	// Persist before the trade becomes visible; a failed write leaves
	// no ghost position in the ledger.
	if l.store != nil {
		if err := l.store.SaveTrade(ctx, t); err != nil {
			return nil, apperrors.Wrap(err, "persisting trade")
		}
	}

	l.mu.Lock()
	l.trades[t.ID] = t
	l.order = append(l.order, t.ID)
	l.mu.Unlock()

	logging.LogTradeOpen(l.logger, t.ID, t.Symbol, string(t.Direction), t.Quantity, t.EntryPrice)
	return copyTrade(t), nil
}

// Close closes an open trade under the given policy and returns the
// realized trade. The exit price is resolved per policy:
//
//	CloseManual      caller-supplied price
//	CloseMarket      live price from the price source
//	CloseStopLoss    the trade's stop level
//	CloseTakeProfit  the trade's target level
func (l *Ledger) Close(ctx context.Context, id string, reason models.CloseReason, price float64) (*models.Trade, error) {
	if !reason.Valid() {
		return nil, &apperrors.ValidationError{Field: "reason", Message: "unknown close reason"}
	}

	// Resolve the market price outside the lock; the price source may
	// block on the network.
	var marketPrice float64
	if reason == models.CloseMarket {
		t, ok := l.get(id)
		if !ok {
			return nil, apperrors.ErrTradeNotFound
		}
		if l.prices == nil {
			return nil, &apperrors.PriceError{Symbol: t.Symbol, Err: apperrors.ErrPriceUnavailable}
		}
		var err error
		marketPrice, err = l.prices.Price(ctx, t.Symbol)
		if err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	t, ok := l.trades[id]
	if !ok {
		l.mu.Unlock()
		return nil, apperrors.ErrTradeNotFound
	}
	if t.Status == models.TradeStatusClosed {
		l.mu.Unlock()
		return nil, apperrors.ErrTradeAlreadyClosed
	}

	var exit float64
	switch reason {
	case models.CloseManual:
		if price <= 0 {
			l.mu.Unlock()
			return nil, &apperrors.ValidationError{Field: "price", Message: "manual close needs a positive price"}
		}
		exit = price
	case models.CloseMarket:
		exit = marketPrice
	case models.CloseStopLoss:
		exit = t.StopLoss
	case models.CloseTakeProfit:
		exit = t.TakeProfit
	}

	done := copyTrade(t)
	done.Status = models.TradeStatusClosed
	done.ExitPrice = exit
	done.PnL = (exit - done.EntryPrice) * done.Quantity * done.Direction.Sign()
	done.ClosedAt = time.Now().UTC()
	done.CloseReason = reason

	// The durable write happens first, still under the mutex: a failed
	// write leaves the in-memory trade OPEN and the close retryable.
	if l.store != nil {
		if err := l.store.UpdateTrade(ctx, done); err != nil {
			l.mu.Unlock()
			return nil, apperrors.Wrap(err, "persisting close")
		}
	}
	*t = *done
	l.mu.Unlock()

	logging.LogTradeClose(l.logger, done.ID, string(done.CloseReason), done.ExitPrice, done.PnL)
	return done, nil
}

// Get returns a copy of the trade with the given id.
func (l *Ledger) Get(id string) (*models.Trade, error) {
	t, ok := l.get(id)
	if !ok {
		return nil, apperrors.ErrTradeNotFound
	}
	return t, nil
}

func (l *Ledger) get(id string) (*models.Trade, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.trades[id]
	if !ok {
		return nil, false
	}
	return copyTrade(t), true
}

// Trades returns copies of all trades in insertion order.
func (l *Ledger) Trades() []*models.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.Trade, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, copyTrade(l.trades[id]))
	}
	return out
}

// OpenTrades returns copies of trades still open, in insertion order.
func (l *Ledger) OpenTrades() []*models.Trade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.Trade, 0, len(l.order))
	for _, id := range l.order {
		if t := l.trades[id]; t.Status == models.TradeStatusOpen {
			out = append(out, copyTrade(t))
		}
	}
	return out
}

// ClosedTrades returns closed trades ordered by close time ascending.
func (l *Ledger) ClosedTrades() []*models.Trade {
	l.mu.RLock()
	out := make([]*models.Trade, 0, len(l.order))
	for _, id := range l.order {
		if t := l.trades[id]; t.Status == models.TradeStatusClosed {
			out = append(out, copyTrade(t))
		}
	}
	l.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClosedAt.Before(out[j].ClosedAt)
	})
	return out
}

// MonitorOpen checks every open trade against a live price and closes
// those whose stop or target was crossed. Stops win when both levels
// would trigger on the same read.
func (l *Ledger) MonitorOpen(ctx context.Context) []*models.Trade {
	if l.prices == nil {
		return nil
	}
	var closed []*models.Trade
	for _, t := range l.OpenTrades() {
		price, err := l.prices.Price(ctx, t.Symbol)
		if err != nil {
			l.logger.Warn().Err(err).Str("symbol", t.Symbol).Msg("monitor: price unavailable")
			continue
		}
		reason, hit := exitHit(t, price)
		if !hit {
			continue
		}
		done, err := l.Close(ctx, t.ID, reason, 0)
		if err != nil {
			// Lost the race with another closer; nothing to do.
			continue
		}
		closed = append(closed, done)
	}
	return closed
}

func exitHit(t *models.Trade, price float64) (models.CloseReason, bool) {
	switch t.Direction {
	case models.DirectionBuy:
		if price <= t.StopLoss {
			return models.CloseStopLoss, true
		}
		if price >= t.TakeProfit {
			return models.CloseTakeProfit, true
		}
	case models.DirectionSell:
		if price >= t.StopLoss {
			return models.CloseStopLoss, true
		}
		if price <= t.TakeProfit {
			return models.CloseTakeProfit, true
		}
	}
	return "", false
}

func copyTrade(t *models.Trade) *models.Trade {
	c := *t
	return &c
}
