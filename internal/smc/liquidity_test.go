package smc

import (
	"testing"
	"time"

	"smc-backtester/internal/market"
)

func TestLiquidityZonesFromSwings(t *testing.T) {
	detector := NewLiquidityZoneDetector(2)

	// One swing high at 16 and one swing low at 5
	candles := zigzag([]float64{10, 11, 15, 11, 10, 6, 10, 11, 10})
	zones := detector.Detect(candles)

	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}
	if zones[0].Type != BuySideLiquidity || zones[0].Price != 16 {
		t.Errorf("expected buy-side zone at 16, got %s at %f", zones[0].Type, zones[0].Price)
	}
	if zones[1].Type != SellSideLiquidity || zones[1].Price != 5 {
		t.Errorf("expected sell-side zone at 5, got %s at %f", zones[1].Type, zones[1].Price)
	}
	for _, z := range zones {
		if z.IsSwept {
			t.Errorf("zone at %f should not be swept", z.Price)
		}
	}
}

func TestEqualLevelCluster(t *testing.T) {
	detector := NewLiquidityZoneDetector(2)

	// Two swing highs at exactly 16 form an equal-level pool
	candles := zigzag([]float64{10, 11, 15, 11, 10, 11, 15, 11, 10})
	zones := detector.Detect(candles)

	var clusters []LiquidityZone
	for _, z := range zones {
		if z.Touches >= 2 {
			clusters = append(clusters, z)
		}
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 equal-level cluster, got %d", len(clusters))
	}
	if clusters[0].Type != BuySideLiquidity || clusters[0].Price != 16 {
		t.Errorf("expected buy-side cluster at 16, got %s at %f", clusters[0].Type, clusters[0].Price)
	}
	if clusters[0].Touches != 2 {
		t.Errorf("expected 2 touches, got %d", clusters[0].Touches)
	}
}

func TestRecentSweepWithRejection(t *testing.T) {
	detector := NewLiquidityZoneDetector(2)

	candles := zigzag([]float64{10, 11, 15, 11, 10})
	// Wick through the high at 16, close back below
	candles = append(candles, market.Candle{
		Time: testBase.Add(5 * 15 * time.Minute),
		Open: 11, High: 16.5, Low: 10.5, Close: 11,
	})

	zones := detector.Detect(candles)
	sweep := detector.RecentSweep(zones, candles, 20)

	if sweep == nil {
		t.Fatal("expected a sweep")
	}
	if !sweep.IsReversal {
		t.Error("close back below the level should mark a reversal")
	}
	if sweep.Bias != BiasBearish {
		t.Errorf("sweeping buy-side liquidity should imply bearish, got %s", sweep.Bias)
	}
	if sweep.Zone.Price != 16 {
		t.Errorf("expected swept zone at 16, got %f", sweep.Zone.Price)
	}
}

func TestSweepWithoutRejection(t *testing.T) {
	detector := NewLiquidityZoneDetector(2)

	candles := zigzag([]float64{10, 11, 15, 11, 10})
	// Breaks the level and holds above it
	candles = append(candles, market.Candle{
		Time: testBase.Add(5 * 15 * time.Minute),
		Open: 11, High: 17, Low: 10.5, Close: 16.5,
	})

	zones := detector.Detect(candles)
	sweep := detector.RecentSweep(zones, candles, 20)

	if sweep == nil {
		t.Fatal("expected a sweep")
	}
	if sweep.IsReversal {
		t.Error("a close beyond the level is a breakout, not a reversal")
	}
}

func TestInducements(t *testing.T) {
	detector := NewLiquidityZoneDetector(2)

	zones := []LiquidityZone{{Type: BuySideLiquidity, Price: 16}}
	points := []SwingPoint{
		{Type: SwingHigh, Price: 12},
		{Type: SwingHigh, Price: 14},
		{Type: SwingLow, Price: 9},
	}

	inducements := detector.Inducements(zones, points, 10)

	if len(inducements) != 1 {
		t.Fatalf("expected 1 inducement, got %d", len(inducements))
	}
	ind := inducements[0]
	if ind.Price != 12 {
		t.Errorf("expected the nearest minor swing at 12, got %f", ind.Price)
	}
	if ind.ZonePrice != 16 {
		t.Errorf("expected zone price 16, got %f", ind.ZonePrice)
	}
}

func TestUnsweptZones(t *testing.T) {
	now := testBase
	zones := []LiquidityZone{
		{Type: BuySideLiquidity, Price: 16},
		{Type: BuySideLiquidity, Price: 18, IsSwept: true, SweptAt: &now},
		{Type: SellSideLiquidity, Price: 5},
	}
	if got := UnsweptZones(zones, BuySideLiquidity); len(got) != 1 || got[0].Price != 16 {
		t.Errorf("expected the single unswept buy-side zone at 16, got %+v", got)
	}
}
