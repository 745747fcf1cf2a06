package smc

import (
	"math"
	"sort"
	"time"

	"smc-backtester/internal/market"
)

// LiquidityType separates buy-side (above highs) from sell-side (below
// lows) liquidity.
type LiquidityType string

const (
	BuySideLiquidity  LiquidityType = "HIGH"
	SellSideLiquidity LiquidityType = "LOW"
)

// LiquidityZone is a price level where resting stop orders cluster
type LiquidityZone struct {
	Type       LiquidityType
	Price      float64
	CandleTime time.Time
	IsSwept    bool
	SweptAt    *time.Time
	Touches    int // >1 for equal-level clusters
}

// LiquiditySweep records price trading through a zone, and whether the
// sweeping candle rejected back to the original side (the tradable
// pattern).
type LiquiditySweep struct {
	Zone       LiquidityZone
	Time       time.Time
	IsReversal bool
	// Direction the reversal trades toward: sweeping buy-side liquidity and
	// rejecting implies bearish, and mirrored.
	Bias Bias
}

// Inducement is the minor swing between a major zone and current price that
// is likely to be run first.
type Inducement struct {
	Price     float64
	Time      time.Time
	Type      LiquidityType
	ZonePrice float64 // The major zone this inducement sits in front of
}

// LiquidityZoneDetector builds zones from swing points and equal-level
// clusters and detects sweeps.
type LiquidityZoneDetector struct {
	swings          *SwingPointDetector
	equalLevelPct   float64 // Bucket width for equal-level clustering, in %
	minClusterTouch int
}

// NewLiquidityZoneDetector creates a detector with a 0.1% equal-level
// bucket and 2-touch minimum.
func NewLiquidityZoneDetector(swingLookback int) *LiquidityZoneDetector {
	return &LiquidityZoneDetector{
		swings:          NewSwingPointDetector(swingLookback),
		equalLevelPct:   0.1,
		minClusterTouch: 2,
	}
}

// Detect returns all liquidity zones for the window: one per swing extreme
// plus equal-level clusters, each marked swept when a later candle traded
// through its price. Zones are sorted by time.
func (d *LiquidityZoneDetector) Detect(candles []market.Candle) []LiquidityZone {
	points := d.swings.Detect(candles)

	var zones []LiquidityZone
	for _, p := range points {
		z := LiquidityZone{
			Price:      p.Price,
			CandleTime: p.Time,
			Touches:    1,
		}
		if p.Type == SwingHigh {
			z.Type = BuySideLiquidity
		} else {
			z.Type = SellSideLiquidity
		}
		d.markSweep(&z, candles, p.Index)
		zones = append(zones, z)
	}

	zones = append(zones, d.equalLevels(points, candles)...)
	sort.Slice(zones, func(i, j int) bool { return zones[i].CandleTime.Before(zones[j].CandleTime) })
	return zones
}

// markSweep flips IsSwept when any candle after the zone's origin trades
// through its price.
func (d *LiquidityZoneDetector) markSweep(z *LiquidityZone, candles []market.Candle, fromIndex int) {
	for i := fromIndex + 1; i < len(candles); i++ {
		c := candles[i]
		if (z.Type == BuySideLiquidity && c.High > z.Price) ||
			(z.Type == SellSideLiquidity && c.Low < z.Price) {
			t := c.Time
			z.IsSwept = true
			z.SweptAt = &t
			return
		}
	}
}

// equalLevels clusters swing prices into 0.1% buckets and emits a zone for
// every bucket touched at least twice, at the average bucket price.
func (d *LiquidityZoneDetector) equalLevels(points []SwingPoint, candles []market.Candle) []LiquidityZone {
	type bucket struct {
		sum     float64
		count   int
		last    SwingPoint
		zoneTyp LiquidityType
	}

	buckets := make(map[int64]*bucket)
	for _, p := range points {
		if p.Price <= 0 {
			continue
		}
		// Round to a 0.1% grid so near-equal levels land in one bucket.
		key := int64(math.Round(math.Log(p.Price) / (d.equalLevelPct / 100)))
		typ := BuySideLiquidity
		if p.Type == SwingLow {
			typ = SellSideLiquidity
		}
		b, ok := buckets[key]
		if !ok || b.zoneTyp != typ {
			if !ok {
				buckets[key] = &bucket{sum: p.Price, count: 1, last: p, zoneTyp: typ}
			}
			continue
		}
		b.sum += p.Price
		b.count++
		if p.Time.After(b.last.Time) {
			b.last = p
		}
	}

	var zones []LiquidityZone
	for _, b := range buckets {
		if b.count < d.minClusterTouch {
			continue
		}
		z := LiquidityZone{
			Type:       b.zoneTyp,
			Price:      b.sum / float64(b.count),
			CandleTime: b.last.Time,
			Touches:    b.count,
		}
		d.markSweep(&z, candles, b.last.Index)
		zones = append(zones, z)
	}
	return zones
}

// RecentSweep scans the trailing lookback candles for a sweep of any zone
// and reports whether it rejected: the wick crossed the zone but the close
// stayed on the original side. The most recent qualifying sweep wins.
func (d *LiquidityZoneDetector) RecentSweep(zones []LiquidityZone, candles []market.Candle, lookback int) *LiquiditySweep {
	start := len(candles) - lookback
	if start < 0 {
		start = 0
	}

	var latest *LiquiditySweep
	for _, z := range zones {
		for i := start; i < len(candles); i++ {
			c := candles[i]
			if !c.Time.After(z.CandleTime) {
				continue
			}
			var swept, rejected bool
			var bias Bias
			if z.Type == BuySideLiquidity && c.High > z.Price {
				swept = true
				rejected = c.Close < z.Price
				bias = BiasBearish
			} else if z.Type == SellSideLiquidity && c.Low < z.Price {
				swept = true
				rejected = c.Close > z.Price
				bias = BiasBullish
			}
			if !swept {
				continue
			}
			s := &LiquiditySweep{Zone: z, Time: c.Time, IsReversal: rejected, Bias: bias}
			if latest == nil || s.Time.After(latest.Time) {
				latest = s
			}
			break
		}
	}
	return latest
}

// Inducements finds, for each unswept major zone, the nearest minor swing
// lying strictly between the zone price and the current price on the same
// side.
func (d *LiquidityZoneDetector) Inducements(zones []LiquidityZone, points []SwingPoint, currentPrice float64) []Inducement {
	var out []Inducement
	for _, z := range zones {
		if z.IsSwept {
			continue
		}
		var best *SwingPoint
		for i := range points {
			p := points[i]
			switch z.Type {
			case BuySideLiquidity:
				if p.Type != SwingHigh || p.Price >= z.Price || p.Price <= currentPrice {
					continue
				}
			case SellSideLiquidity:
				if p.Type != SwingLow || p.Price <= z.Price || p.Price >= currentPrice {
					continue
				}
			}
			if best == nil || math.Abs(p.Price-currentPrice) < math.Abs(best.Price-currentPrice) {
				best = &points[i]
			}
		}
		if best != nil {
			out = append(out, Inducement{
				Price:     best.Price,
				Time:      best.Time,
				Type:      z.Type,
				ZonePrice: z.Price,
			})
		}
	}
	return out
}

// UnsweptZones filters to zones price has not yet traded through
func UnsweptZones(zones []LiquidityZone, t LiquidityType) []LiquidityZone {
	var out []LiquidityZone
	for _, z := range zones {
		if z.Type == t && !z.IsSwept {
			out = append(out, z)
		}
	}
	return out
}
