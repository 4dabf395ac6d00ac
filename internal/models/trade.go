package models

import "time"

// Trade represents a position through its open -> closed lifecycle.
// Trades are owned by the position ledger: they are created once from a
// confirmed signal, transition exactly once to CLOSED, and are retained
// forever for equity-curve reconstruction.
type Trade struct {
	ID         string
	SignalID   string
	Symbol     string
	Direction  Direction
	EntryPrice float64
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
	Strategy   string
	Status     TradeStatus
	CreatedAt  time.Time

	// Set on close; zero values while OPEN.
	ExitPrice   float64
	PnL         float64
	ClosedAt    time.Time
	CloseReason CloseReason
}

// FloatingPnL computes unrealized profit/loss against a live price.
// Meaningful for OPEN trades only; it is never stored.
func (t Trade) FloatingPnL(livePrice float64) float64 {
	return (livePrice - t.EntryPrice) * t.Quantity * t.Direction.Sign()
}

// PortfolioSnapshot is a derived account-level view, recomputed on
// demand from the trade collection.
type PortfolioSnapshot struct {
	Balance     float64
	TotalPnL    float64
	WinRate     float64 // percent; 0 when no closed trades
	TotalTrades int
	OpenTrades  int
}

// EquityPoint is one step of the realized equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// StrategyStats summarizes closed-trade performance for one strategy tag.
type StrategyStats struct {
	Strategy string
	Trades   int
	TotalPnL float64
	AvgPnL   float64
	WinRate  float64
	MaxWin   float64
}
