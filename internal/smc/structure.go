package smc

import (
	"time"

	"smc-backtester/internal/market"
)

// Bias is the directional market bias
type Bias string

const (
	BiasBullish Bias = "BULLISH"
	BiasBearish Bias = "BEARISH"
	BiasNeutral Bias = "NEUTRAL"
)

// StructureLabel labels the most recent structural state
type StructureLabel string

const (
	StructureHH    StructureLabel = "HH"
	StructureHL    StructureLabel = "HL"
	StructureLH    StructureLabel = "LH"
	StructureLL    StructureLabel = "LL"
	StructureBOS   StructureLabel = "BOS"
	StructureCHOCH StructureLabel = "CHOCH"
	StructureNone  StructureLabel = "NONE"
)

// StructureEvent records a break of structure or change of character
type StructureEvent struct {
	Label StructureLabel
	Bias  Bias // Bias implied by the event
	Price float64
	Time  time.Time
}

// MarketStructure is the per-window structural read. Recomputed on every
// call, never persisted.
type MarketStructure struct {
	Bias          Bias
	LastStructure StructureLabel
	SwingPoints   []SwingPoint
	LastBOS       *StructureEvent
	LastCHOCH     *StructureEvent
}

// structureRule is one row of the classification decision table. Rules run
// in order; the first match wins.
type structureRule struct {
	match func(hh, hl, lh, ll bool) bool
	bias  Bias
	label StructureLabel
}

// Classification precedence: HH+HL continuation, LH+LL continuation,
// HH+LL break, LL+HH change of character. The last two rows overlap; row
// order is the tie-break and is part of the contract.
var structureRules = []structureRule{
	{func(hh, hl, lh, ll bool) bool { return hh && hl }, BiasBullish, StructureHH},
	{func(hh, hl, lh, ll bool) bool { return lh && ll }, BiasBearish, StructureLL},
	{func(hh, hl, lh, ll bool) bool { return hh && ll }, BiasBullish, StructureBOS},
	{func(hh, hl, lh, ll bool) bool { return ll && hh }, BiasNeutral, StructureCHOCH},
}

// MarketStructureAnalyzer derives bias and structure from swing points
type MarketStructureAnalyzer struct {
	swings *SwingPointDetector
}

// NewMarketStructureAnalyzer creates an analyzer using the given swing
// lookback.
func NewMarketStructureAnalyzer(swingLookback int) *MarketStructureAnalyzer {
	return &MarketStructureAnalyzer{swings: NewSwingPointDetector(swingLookback)}
}

// Analyze computes the market structure for a candle window. Fewer than two
// swing highs and two swing lows produce a neutral default, not an error.
func (a *MarketStructureAnalyzer) Analyze(candles []market.Candle) MarketStructure {
	points := LastN(a.swings.Detect(candles), 8)
	highs := LastN(FilterByType(points, SwingHigh), 4)
	lows := LastN(FilterByType(points, SwingLow), 4)

	ms := MarketStructure{
		Bias:          BiasNeutral,
		LastStructure: StructureNone,
		SwingPoints:   points,
	}
	if len(highs) < 2 || len(lows) < 2 {
		return ms
	}

	lastHigh, prevHigh := highs[len(highs)-1], highs[len(highs)-2]
	lastLow, prevLow := lows[len(lows)-1], lows[len(lows)-2]

	higherHigh := lastHigh.Price > prevHigh.Price
	higherLow := lastLow.Price > prevLow.Price
	lowerHigh := lastHigh.Price < prevHigh.Price
	lowerLow := lastLow.Price < prevLow.Price

	for _, rule := range structureRules {
		if rule.match(higherHigh, higherLow, lowerHigh, lowerLow) {
			ms.Bias = rule.bias
			ms.LastStructure = rule.label
			break
		}
	}
	if ms.LastStructure == StructureCHOCH {
		ms.LastCHOCH = &StructureEvent{
			Label: StructureCHOCH,
			Bias:  ms.Bias,
			Price: lastLow.Price,
			Time:  lastLow.Time,
		}
	}

	// A fresh break by the current close overrides the static read: closing
	// above the prior swing high while bearish flips bullish, and mirrored.
	last := candles[len(candles)-1]
	if ms.Bias == BiasBearish && last.Close > prevHigh.Price {
		ms.Bias = BiasBullish
		ms.LastStructure = StructureBOS
		ms.LastBOS = &StructureEvent{
			Label: StructureBOS,
			Bias:  BiasBullish,
			Price: prevHigh.Price,
			Time:  last.Time,
		}
	} else if ms.Bias == BiasBullish && last.Close < prevLow.Price {
		ms.Bias = BiasBearish
		ms.LastStructure = StructureBOS
		ms.LastBOS = &StructureEvent{
			Label: StructureBOS,
			Bias:  BiasBearish,
			Price: prevLow.Price,
			Time:  last.Time,
		}
	}

	return ms
}
