package models

// SwingKind distinguishes swing highs from swing lows.
type SwingKind string

const (
	SwingHigh SwingKind = "HIGH"
	SwingLow  SwingKind = "LOW"
)

// SwingPoint is a local extremum over a symmetric look-back/look-forward
// window of candles.
type SwingPoint struct {
	Index int
	Price float64
	Kind  SwingKind
}

// BlockDirection tags an order block with the direction of the impulse
// that followed it.
type BlockDirection string

const (
	BlockBullish BlockDirection = "BULLISH"
	BlockBearish BlockDirection = "BEARISH"
)

// OrderBlock is the last opposite-direction candle immediately preceding
// an impulsive move. EntryZone is the block candle's open-to-close zone
// midpoint used as a limit-entry anchor.
type OrderBlock struct {
	EntryZone   float64
	Direction   BlockDirection
	OriginIndex int
}

// BOSEvent marks a break of structure: a close beyond the most recent
// opposing swing point in the direction of the prevailing trend.
type BOSEvent struct {
	Level     float64
	Direction Direction
	Index     int
}

// Trend classifies the market structure read from swing sequences.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendRanging Trend = "RANGING"
)

// PricePosition locates current price inside the most recent significant
// swing range.
type PricePosition string

const (
	PositionDiscount    PricePosition = "DISCOUNT"
	PositionEquilibrium PricePosition = "EQUILIBRIUM"
	PositionPremium     PricePosition = "PREMIUM"
)

// StructureSnapshot is the immutable output of one structure analysis
// pass. It is recomputed per call and never mutated in place.
type StructureSnapshot struct {
	Trend             Trend
	PricePosition     PricePosition
	NearestSupport    float64 // 0 when no unbroken swing low below price
	NearestResistance float64 // 0 when no unbroken swing high above price
	ATR               float64
	SwingPoints       []SwingPoint
	OrderBlocks       []OrderBlock
	LastBOS           *BOSEvent
}

// HasSupport reports whether an unbroken swing low exists below price.
func (s StructureSnapshot) HasSupport() bool {
	return s.NearestSupport > 0
}

// HasResistance reports whether an unbroken swing high exists above price.
func (s StructureSnapshot) HasResistance() bool {
	return s.NearestResistance > 0
}
