package models

import "time"

// ConfidenceTier buckets a confidence score for display and for
// auto-execution thresholds.
type ConfidenceTier string

const (
	TierA ConfidenceTier = "A" // >= 80
	TierB ConfidenceTier = "B" // >= 65
	TierC ConfidenceTier = "C"
)

// TierFor returns the documented tier for a confidence score.
func TierFor(confidence float64) ConfidenceTier {
	switch {
	case confidence >= 80:
		return TierA
	case confidence >= 65:
		return TierB
	default:
		return TierC
	}
}

// Signal is an immutable trade setup produced by the signal factory.
// Confirming a signal creates a Trade; it never mutates the Signal.
type Signal struct {
	ID           string
	Symbol       string
	Timeframe    string
	Class        InstrumentClass
	Mode         TradingMode
	Strategy     string
	Direction    Direction
	CurrentPrice float64
	OptimalEntry float64
	EntryType    EntryType
	StopLoss     float64
	TakeProfit1  float64
	TakeProfit2  float64 // 0 when absent
	TakeProfit3  float64 // 0 when absent
	RRRatio      float64
	Confidence   float64 // [0,100]
	Structure    StructureSnapshot
	CreatedAt    time.Time
}

// Tier returns the confidence tier of the signal.
func (s Signal) Tier() ConfidenceTier {
	return TierFor(s.Confidence)
}
