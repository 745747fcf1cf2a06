package smc

import (
	"time"

	"smc-backtester/internal/market"
)

// FVGType is the direction of a fair value gap
type FVGType string

const (
	BullishFVG FVGType = "BULLISH"
	BearishFVG FVGType = "BEARISH"
)

// FairValueGap is a 3-candle price imbalance. The zone is [Low, High]; for
// a bullish gap Low is the first candle's high and High the third candle's
// low, mirrored for bearish.
type FairValueGap struct {
	Type     FVGType
	High     float64
	Low      float64
	GapTime  time.Time // Middle candle time
	IsFilled bool
	FilledAt *time.Time
}

// Midpoint returns the center of the gap zone
func (f FairValueGap) Midpoint() float64 {
	return (f.High + f.Low) / 2
}

// Size returns the gap height
func (f FairValueGap) Size() float64 {
	return f.High - f.Low
}

// Contains reports whether the price sits inside the gap zone
func (f FairValueGap) Contains(price float64) bool {
	return price >= f.Low && price <= f.High
}

// FVGDetector detects fair value gaps and their fill state
type FVGDetector struct {
	minGapPercent   float64 // Minimum gap as % of reference price
	partialFillPart float64 // Fraction of the gap counting as a partial fill
}

// NewFVGDetector creates a detector. Non-positive arguments fall back to a
// 0.1% minimum gap and a 50% partial-fill fraction.
func NewFVGDetector(minGapPercent, partialFillPart float64) *FVGDetector {
	if minGapPercent <= 0 {
		minGapPercent = 0.1
	}
	if partialFillPart <= 0 {
		partialFillPart = 0.5
	}
	return &FVGDetector{minGapPercent: minGapPercent, partialFillPart: partialFillPart}
}

// Detect scans every 3-candle run for an imbalance and marks fills against
// the candles that follow each gap.
func (d *FVGDetector) Detect(candles []market.Candle) []FairValueGap {
	if len(candles) < 3 {
		return nil
	}

	var gaps []FairValueGap
	for i := 0; i+2 < len(candles); i++ {
		c1, c2, c3 := candles[i], candles[i+1], candles[i+2]

		if c3.Low > c1.High {
			gapPct := (c3.Low - c1.High) / c1.High * 100
			if gapPct >= d.minGapPercent {
				g := FairValueGap{
					Type:    BullishFVG,
					High:    c3.Low,
					Low:     c1.High,
					GapTime: c2.Time,
				}
				d.markFill(&g, candles[i+3:])
				gaps = append(gaps, g)
			}
		}

		if c3.High < c1.Low {
			gapPct := (c1.Low - c3.High) / c3.High * 100
			if gapPct >= d.minGapPercent {
				g := FairValueGap{
					Type:    BearishFVG,
					High:    c1.Low,
					Low:     c3.High,
					GapTime: c2.Time,
				}
				d.markFill(&g, candles[i+3:])
				gaps = append(gaps, g)
			}
		}
	}
	return gaps
}

// markFill flips IsFilled when price revisits the far edge of the gap: the
// bottom for a bullish gap, the top for a bearish one.
func (d *FVGDetector) markFill(g *FairValueGap, later []market.Candle) {
	for _, c := range later {
		if d.candleFills(*g, c) {
			t := c.Time
			g.IsFilled = true
			g.FilledAt = &t
			return
		}
	}
}

func (d *FVGDetector) candleFills(g FairValueGap, c market.Candle) bool {
	if g.Type == BullishFVG {
		return c.Low <= g.Low
	}
	return c.High >= g.High
}

// IsPartiallyFilled reports whether a candle has retraced at least the
// configured fraction of the gap.
func (d *FVGDetector) IsPartiallyFilled(g FairValueGap, candles []market.Candle) bool {
	if g.Size() == 0 {
		return false
	}
	if g.Type == BullishFVG {
		threshold := g.High - g.Size()*d.partialFillPart
		for _, c := range candles {
			if c.Low <= threshold {
				return true
			}
		}
		return false
	}
	threshold := g.Low + g.Size()*d.partialFillPart
	for _, c := range candles {
		if c.High >= threshold {
			return true
		}
	}
	return false
}

// UnfilledGaps filters to gaps that have not been filled
func UnfilledGaps(gaps []FairValueGap) []FairValueGap {
	var out []FairValueGap
	for _, g := range gaps {
		if !g.IsFilled {
			out = append(out, g)
		}
	}
	return out
}
