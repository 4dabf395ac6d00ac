// Package models provides domain models for the trading core.
package models

import (
	"fmt"
	"time"
)

// Direction represents the direction of a signal or trade.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Sign returns +1 for BUY, -1 for SELL and 0 for NEUTRAL.
func (d Direction) Sign() float64 {
	switch d {
	case DirectionBuy:
		return 1
	case DirectionSell:
		return -1
	}
	return 0
}

// TradingMode represents the intended holding horizon of a setup.
type TradingMode string

const (
	ModeScalping TradingMode = "scalping"
	ModeIntraday TradingMode = "intraday"
	ModeSwing    TradingMode = "swing"
)

// EntryType represents how a signal should be entered.
type EntryType string

const (
	EntryMarket EntryType = "MARKET"
	EntryLimit  EntryType = "LIMIT"
)

// TradeStatus represents the lifecycle state of a trade.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// CloseReason describes how a trade's exit price was sourced.
type CloseReason string

const (
	CloseManual     CloseReason = "MANUAL"
	CloseMarket     CloseReason = "MARKET"
	CloseStopLoss   CloseReason = "STOP_LOSS"
	CloseTakeProfit CloseReason = "TAKE_PROFIT"
)

// Valid reports whether the close reason is one of the four close policies.
func (r CloseReason) Valid() bool {
	switch r {
	case CloseManual, CloseMarket, CloseStopLoss, CloseTakeProfit:
		return true
	}
	return false
}

// InstrumentClass is a closed set of market types, each carrying the
// price-formatting metadata that used to be scattered across string
// comparisons. Resolved once at signal-creation time.
type InstrumentClass string

const (
	ClassCrypto  InstrumentClass = "crypto"
	ClassForex   InstrumentClass = "forex"
	ClassIndices InstrumentClass = "indices"
	ClassMetals  InstrumentClass = "metals"
	ClassFutures InstrumentClass = "futures"
)

// ParseInstrumentClass maps a market-type string to an InstrumentClass.
func ParseInstrumentClass(s string) (InstrumentClass, error) {
	switch InstrumentClass(s) {
	case ClassCrypto, ClassForex, ClassIndices, ClassMetals, ClassFutures:
		return InstrumentClass(s), nil
	}
	return "", fmt.Errorf("unknown market type: %q", s)
}

// Precision returns the number of decimal places used when formatting
// prices for this instrument class.
func (c InstrumentClass) Precision() int {
	switch c {
	case ClassForex:
		return 5
	case ClassIndices, ClassFutures:
		return 2
	case ClassMetals:
		return 2
	default:
		return 4
	}
}

// Candle represents OHLC data for one bar.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

// Range returns the full high-low range of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Validate checks the OHLC invariant: low <= min(open,close) and
// max(open,close) <= high.
func (c Candle) Validate() error {
	lo, hi := c.Open, c.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	if c.Low > lo || c.High < hi {
		return fmt.Errorf("invalid candle at %s: O=%g H=%g L=%g C=%g",
			c.OpenTime.Format(time.RFC3339), c.Open, c.High, c.Low, c.Close)
	}
	return nil
}

// ValidateSeries checks per-candle OHLC invariants and strictly
// increasing open times across the series.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return err
		}
		if i > 0 && !candles[i-1].OpenTime.Before(c.OpenTime) {
			return fmt.Errorf("candle open times not strictly increasing at index %d", i)
		}
	}
	return nil
}
