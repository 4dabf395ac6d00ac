// Package signal turns candle series into immutable trade signals by
// orchestrating structure analysis and risk computation.
package signal

import (
	"time"

	"github.com/google/uuid"

	"alphamind/internal/analysis/structure"
	"alphamind/internal/config"
	"alphamind/internal/models"
	"alphamind/internal/risk"
)

// Request describes one signal generation request.
type Request struct {
	Symbol     string
	Timeframe  string
	MarketType string
	Mode       models.TradingMode
	Strategy   string
}

// Factory builds signals. It is pure orchestration: no side effects and
// no persistence, so one factory may serve all symbols concurrently.
type Factory struct {
	analyzer *structure.Analyzer
	engine   *risk.Engine
}

// NewFactory creates a signal factory from an immutable configuration
// value.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		analyzer: structure.NewAnalyzer(cfg.Analysis),
		engine:   risk.NewEngine(cfg.Risk),
	}
}

// Generate analyzes the candles, derives levels and returns an
// immutable signal. Confirmation of a signal never mutates it.
func (f *Factory) Generate(req Request, candles []models.Candle, currentPrice float64) (models.Signal, error) {
	class, err := models.ParseInstrumentClass(req.MarketType)
	if err != nil {
		return models.Signal{}, err
	}

	snap, err := f.analyzer.Analyze(req.Symbol, candles)
	if err != nil {
		return models.Signal{}, err
	}

	direction := directionFromStructure(snap)
	levels, err := f.engine.ComputeLevels(req.Symbol, snap, currentPrice, direction, req.Mode)
	if err != nil {
		return models.Signal{}, err
	}

	return models.Signal{
		ID:           uuid.NewString(),
		Symbol:       req.Symbol,
		Timeframe:    req.Timeframe,
		Class:        class,
		Mode:         req.Mode,
		Strategy:     req.Strategy,
		Direction:    direction,
		CurrentPrice: currentPrice,
		OptimalEntry: levels.Entry,
		EntryType:    levels.EntryType,
		StopLoss:     levels.StopLoss,
		TakeProfit1:  levels.TakeProfit1,
		TakeProfit2:  levels.TakeProfit2,
		TakeProfit3:  levels.TakeProfit3,
		RRRatio:      levels.RRRatio,
		Confidence:   levels.Confidence,
		Structure:    snap,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// directionFromStructure reads the trade direction from the trend. A
// ranging market yields NEUTRAL, which the risk engine rejects.
func directionFromStructure(snap models.StructureSnapshot) models.Direction {
	switch snap.Trend {
	case models.TrendBullish:
		return models.DirectionBuy
	case models.TrendBearish:
		return models.DirectionSell
	default:
		return models.DirectionNeutral
	}
}
