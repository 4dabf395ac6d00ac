package trading

import (
	"context"
	"sort"
	"time"

	"alphamind/internal/models"
)

// Portfolio derives account-level views from the ledger. It holds no
// state of its own beyond the starting capital; every read recomputes
// from the trade collection.
type Portfolio struct {
	ledger         *Ledger
	initialCapital float64
}

// NewPortfolio creates an aggregator over the given ledger.
func NewPortfolio(ledger *Ledger, initialCapital float64) *Portfolio {
	return &Portfolio{ledger: ledger, initialCapital: initialCapital}
}

// Snapshot returns the current account summary. Balance reflects
// realized pnl only; floating pnl on open trades never moves it.
func (p *Portfolio) Snapshot() models.PortfolioSnapshot {
	trades := p.ledger.Trades()

	var realized float64
	var open, wins, closed int
	for _, t := range trades {
		if t.Status == models.TradeStatusOpen {
			open++
			continue
		}
		closed++
		realized += t.PnL
		if t.PnL > 0 {
			wins++
		}
	}

	winRate := 0.0
	if closed > 0 {
		winRate = float64(wins) / float64(closed) * 100
	}

	return models.PortfolioSnapshot{
		Balance:     p.initialCapital + realized,
		TotalPnL:    realized,
		WinRate:     winRate,
		TotalTrades: len(trades),
		OpenTrades:  open,
	}
}

// FloatingPnL sums unrealized pnl across open trades at live prices.
// Symbols whose price is unavailable are skipped rather than failing
// the whole read.
func (p *Portfolio) FloatingPnL(ctx context.Context) float64 {
	if p.ledger.prices == nil {
		return 0
	}
	var total float64
	for _, t := range p.ledger.OpenTrades() {
		price, err := p.ledger.prices.Price(ctx, t.Symbol)
		if err != nil {
			continue
		}
		total += t.FloatingPnL(price)
	}
	return total
}

// EquityCurve reconstructs the realized equity series: one point of
// initial capital, then one point per closed trade in close order.
func (p *Portfolio) EquityCurve() []models.EquityPoint {
	closed := p.ledger.ClosedTrades()

	curve := make([]models.EquityPoint, 0, len(closed)+1)
	equity := p.initialCapital
	start := time.Now().UTC()
	if len(closed) > 0 {
		start = closed[0].CreatedAt
	}
	curve = append(curve, models.EquityPoint{Timestamp: start, Equity: equity})
	for _, t := range closed {
		equity += t.PnL
		curve = append(curve, models.EquityPoint{Timestamp: t.ClosedAt, Equity: equity})
	}
	return curve
}

// StrategyStats groups closed trades by strategy tag, ordered by total
// pnl descending.
func (p *Portfolio) StrategyStats() []models.StrategyStats {
	byStrategy := make(map[string]*models.StrategyStats)
	wins := make(map[string]int)

	for _, t := range p.ledger.ClosedTrades() {
		s, ok := byStrategy[t.Strategy]
		if !ok {
			s = &models.StrategyStats{Strategy: t.Strategy}
			byStrategy[t.Strategy] = s
		}
		s.Trades++
		s.TotalPnL += t.PnL
		if t.PnL > 0 {
			wins[t.Strategy]++
			if t.PnL > s.MaxWin {
				s.MaxWin = t.PnL
			}
		}
	}

	out := make([]models.StrategyStats, 0, len(byStrategy))
	for name, s := range byStrategy {
		s.AvgPnL = s.TotalPnL / float64(s.Trades)
		s.WinRate = float64(wins[name]) / float64(s.Trades) * 100
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPnL != out[j].TotalPnL {
			return out[i].TotalPnL > out[j].TotalPnL
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out
}
