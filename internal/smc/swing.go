// Package smc implements Smart Money Concepts pattern detection: swing
// points, market structure, order blocks, fair value gaps, liquidity zones
// and kill zone classification. All detectors are stateless pure functions
// over an immutable candle window.
package smc

import (
	"time"

	"smc-backtester/internal/market"
)

// SwingType distinguishes swing highs from swing lows
type SwingType string

const (
	SwingHigh SwingType = "HIGH"
	SwingLow  SwingType = "LOW"
)

// SwingPoint is a local price extremum
type SwingPoint struct {
	Type  SwingType
	Price float64
	Time  time.Time
	Index int
}

// SwingPointDetector finds local extrema over a fixed left/right lookback
type SwingPointDetector struct {
	lookback int
}

// NewSwingPointDetector creates a detector. A non-positive lookback falls
// back to the default of 2.
func NewSwingPointDetector(lookback int) *SwingPointDetector {
	if lookback <= 0 {
		lookback = 2
	}
	return &SwingPointDetector{lookback: lookback}
}

// Detect returns all swing points in the window, sorted by time. An index i
// is a swing high iff candles[i].High is strictly greater than every other
// high in [i-L, i+L]; swing lows mirror on lows. Equal extremes within the
// window yield no swing at that index. Series shorter than 2L+1 yield an
// empty result.
func (d *SwingPointDetector) Detect(candles []market.Candle) []SwingPoint {
	L := d.lookback
	if len(candles) < 2*L+1 {
		return nil
	}

	var points []SwingPoint
	for i := L; i < len(candles)-L; i++ {
		if d.isSwingHigh(candles, i) {
			points = append(points, SwingPoint{
				Type:  SwingHigh,
				Price: candles[i].High,
				Time:  candles[i].Time,
				Index: i,
			})
		}
		if d.isSwingLow(candles, i) {
			points = append(points, SwingPoint{
				Type:  SwingLow,
				Price: candles[i].Low,
				Time:  candles[i].Time,
				Index: i,
			})
		}
	}
	return points
}

func (d *SwingPointDetector) isSwingHigh(candles []market.Candle, i int) bool {
	for j := i - d.lookback; j <= i+d.lookback; j++ {
		if j == i {
			continue
		}
		if candles[j].High >= candles[i].High {
			return false
		}
	}
	return true
}

func (d *SwingPointDetector) isSwingLow(candles []market.Candle, i int) bool {
	for j := i - d.lookback; j <= i+d.lookback; j++ {
		if j == i {
			continue
		}
		if candles[j].Low <= candles[i].Low {
			return false
		}
	}
	return true
}

// FilterByType returns the swing points of a single type, order preserved
func FilterByType(points []SwingPoint, t SwingType) []SwingPoint {
	var out []SwingPoint
	for _, p := range points {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

// LastN returns the most recent n points (all of them when fewer exist)
func LastN(points []SwingPoint, n int) []SwingPoint {
	if len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}
