package smc

import (
	"testing"
	"time"

	"smc-backtester/internal/market"
)

func fvgCandle(i int, o, h, l, c float64) market.Candle {
	return market.Candle{
		Time: testBase.Add(time.Duration(i) * time.Hour),
		Open: o, High: h, Low: l, Close: c,
	}
}

func TestDetectBullishFVG(t *testing.T) {
	detector := NewFVGDetector(0.1, 0.5)

	candles := []market.Candle{
		// Candle 1: high at 100
		fvgCandle(0, 95, 100, 94, 98),
		// Candle 2: gap creator
		fvgCandle(1, 98, 105, 97, 104),
		// Candle 3: low at 101, leaving a gap between 100 and 101
		fvgCandle(2, 104, 108, 101, 106),
	}

	gaps := detector.Detect(candles)

	if len(gaps) != 1 {
		t.Fatalf("expected 1 FVG, got %d", len(gaps))
	}
	g := gaps[0]
	if g.Type != BullishFVG {
		t.Errorf("expected bullish FVG, got %s", g.Type)
	}
	if g.Low != 100 || g.High != 101 {
		t.Errorf("expected zone [100, 101], got [%f, %f]", g.Low, g.High)
	}
	if g.IsFilled {
		t.Error("gap should not start filled")
	}
	if g.Midpoint() != 100.5 {
		t.Errorf("expected midpoint 100.5, got %f", g.Midpoint())
	}
	if !g.GapTime.Equal(candles[1].Time) {
		t.Error("gap time should be the middle candle's")
	}
}

func TestDetectBearishFVG(t *testing.T) {
	detector := NewFVGDetector(0.1, 0.5)

	candles := []market.Candle{
		// Candle 1: low at 100
		fvgCandle(0, 105, 106, 100, 102),
		// Candle 2: gap creator
		fvgCandle(1, 102, 103, 95, 96),
		// Candle 3: high at 99, leaving a gap between 99 and 100
		fvgCandle(2, 96, 99, 92, 94),
	}

	gaps := detector.Detect(candles)

	if len(gaps) != 1 {
		t.Fatalf("expected 1 FVG, got %d", len(gaps))
	}
	g := gaps[0]
	if g.Type != BearishFVG {
		t.Errorf("expected bearish FVG, got %s", g.Type)
	}
	if g.Low != 99 || g.High != 100 {
		t.Errorf("expected zone [99, 100], got [%f, %f]", g.Low, g.High)
	}
}

func TestBullishFVGFill(t *testing.T) {
	detector := NewFVGDetector(0.1, 0.5)

	candles := []market.Candle{
		fvgCandle(0, 95, 100, 94, 98),
		fvgCandle(1, 98, 105, 97, 104),
		fvgCandle(2, 104, 108, 101, 106),
		// Retrace all the way to the bottom of the gap
		fvgCandle(3, 106, 107, 99.5, 100.2),
	}

	gaps := detector.Detect(candles)

	if len(gaps) != 1 {
		t.Fatalf("expected 1 FVG, got %d", len(gaps))
	}
	if !gaps[0].IsFilled {
		t.Error("gap should be filled by the retrace to its bottom")
	}
	if gaps[0].FilledAt == nil || !gaps[0].FilledAt.Equal(candles[3].Time) {
		t.Error("FilledAt should be the retrace candle's time")
	}
	if unfilled := UnfilledGaps(gaps); len(unfilled) != 0 {
		t.Errorf("expected no unfilled gaps, got %d", len(unfilled))
	}
}

// A retrace past the gap midpoint but short of the far edge is a partial
// fill only.
func TestFVGPartialFill(t *testing.T) {
	detector := NewFVGDetector(0.1, 0.5)

	candles := []market.Candle{
		fvgCandle(0, 95, 100, 94, 98),
		fvgCandle(1, 98, 105, 97, 104),
		fvgCandle(2, 104, 108, 101, 106),
		fvgCandle(3, 106, 107, 100.4, 101.5),
	}

	gaps := detector.Detect(candles)

	if len(gaps) != 1 {
		t.Fatalf("expected 1 FVG, got %d", len(gaps))
	}
	if gaps[0].IsFilled {
		t.Error("gap should not count as fully filled")
	}
	if !detector.IsPartiallyFilled(gaps[0], candles[3:]) {
		t.Error("expected a partial fill past the midpoint")
	}
}

func TestGapBelowMinimumIgnored(t *testing.T) {
	detector := NewFVGDetector(0.1, 0.5)

	candles := []market.Candle{
		fvgCandle(0, 95, 100, 94, 98),
		fvgCandle(1, 98, 105, 97, 104),
		// Gap of 0.03% between 100 and 100.03
		fvgCandle(2, 104, 108, 100.03, 106),
	}

	if gaps := detector.Detect(candles); len(gaps) != 0 {
		t.Errorf("expected no gaps below the size floor, got %d", len(gaps))
	}
}
