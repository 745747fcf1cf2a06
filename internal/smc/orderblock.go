package smc

import (
	"sort"
	"time"

	talib "github.com/markcheno/go-talib"

	"smc-backtester/internal/market"
)

// OrderBlockType is the polarity of an order block
type OrderBlockType string

const (
	BullishOB OrderBlockType = "BULLISH"
	BearishOB OrderBlockType = "BEARISH"
)

// OrderBlock is the last opposite-color candle before a displacement move
type OrderBlock struct {
	Type        OrderBlockType
	High        float64
	Low         float64
	Open        float64
	Close       float64
	CandleTime  time.Time
	IsValid     bool // False once mitigated
	MitigatedAt *time.Time
	Score       float64 // 0-100 strength from displacement size and freshness
}

// Contains reports whether the price sits inside the block zone
func (ob OrderBlock) Contains(price float64) bool {
	return price >= ob.Low && price <= ob.High
}

// OrderBlockDetector finds ATR-normalized displacement order blocks
type OrderBlockDetector struct {
	atrPeriod   int
	atrMultiple float64 // Displacement threshold as ATR fraction
	maxScan     int     // Forward candles scanned for the displacement
	keepPerSide int     // Most-recent blocks retained per polarity
}

// NewOrderBlockDetector creates a detector with production defaults:
// ATR(14) x 0.8 displacement, 10-candle scan, 5 retained per side.
func NewOrderBlockDetector() *OrderBlockDetector {
	return &OrderBlockDetector{
		atrPeriod:   14,
		atrMultiple: 0.8,
		maxScan:     10,
		keepPerSide: 5,
	}
}

// Detect finds order blocks over the lookback window and marks mitigation
// against all later candles in the series. The most recent keepPerSide
// blocks per polarity are retained even when mitigated so retest entries
// remain possible; older mitigated blocks are dropped.
func (d *OrderBlockDetector) Detect(candles []market.Candle, lookback int) []OrderBlock {
	if len(candles) < d.atrPeriod+1 {
		return nil
	}

	atr := d.currentATR(candles)
	if atr <= 0 {
		return nil
	}
	minMove := atr * d.atrMultiple

	start := len(candles) - lookback
	if start < 0 {
		start = 0
	}

	var blocks []OrderBlock
	for i := start; i < len(candles)-1; i++ {
		c := candles[i]

		if c.IsBearish() {
			if d.displacementUp(candles, i, minMove) && d.bullishFollowThrough(candles, i) {
				ob := OrderBlock{
					Type:       BullishOB,
					High:       c.High,
					Low:        c.Low,
					Open:       c.Open,
					Close:      c.Close,
					CandleTime: c.Time,
					IsValid:    true,
				}
				d.markMitigation(&ob, candles[i+1:])
				ob.Score = d.score(candles, i, atr, ob.IsValid)
				blocks = append(blocks, ob)
			}
		} else if c.IsBullish() {
			if d.displacementDown(candles, i, minMove) && d.bearishFollowThrough(candles, i) {
				ob := OrderBlock{
					Type:       BearishOB,
					High:       c.High,
					Low:        c.Low,
					Open:       c.Open,
					Close:      c.Close,
					CandleTime: c.Time,
					IsValid:    true,
				}
				d.markMitigation(&ob, candles[i+1:])
				ob.Score = d.score(candles, i, atr, ob.IsValid)
				blocks = append(blocks, ob)
			}
		}
	}

	return d.retain(blocks)
}

// currentATR returns the latest ATR value for the series
func (d *OrderBlockDetector) currentATR(candles []market.Candle) float64 {
	atrs := talib.Atr(market.Highs(candles), market.Lows(candles), market.Closes(candles), d.atrPeriod)
	if len(atrs) == 0 {
		return 0
	}
	return atrs[len(atrs)-1]
}

// displacementUp reports whether the running high within maxScan candles
// after i moves at least minMove above candle i's low.
func (d *OrderBlockDetector) displacementUp(candles []market.Candle, i int, minMove float64) bool {
	runningHigh := candles[i].High
	end := i + d.maxScan
	if end >= len(candles) {
		end = len(candles) - 1
	}
	for j := i + 1; j <= end; j++ {
		if candles[j].High > runningHigh {
			runningHigh = candles[j].High
		}
		if runningHigh-candles[i].Low >= minMove {
			return true
		}
	}
	return false
}

func (d *OrderBlockDetector) displacementDown(candles []market.Candle, i int, minMove float64) bool {
	runningLow := candles[i].Low
	end := i + d.maxScan
	if end >= len(candles) {
		end = len(candles) - 1
	}
	for j := i + 1; j <= end; j++ {
		if candles[j].Low < runningLow {
			runningLow = candles[j].Low
		}
		if candles[i].High-runningLow >= minMove {
			return true
		}
	}
	return false
}

// bullishFollowThrough requires the next candle to be impulsively bullish
// (body > 30% of the block candle's body) or to close above the block high.
func (d *OrderBlockDetector) bullishFollowThrough(candles []market.Candle, i int) bool {
	next := candles[i+1]
	if next.IsBullish() && next.Body() > candles[i].Body()*0.3 {
		return true
	}
	return next.Close > candles[i].High
}

func (d *OrderBlockDetector) bearishFollowThrough(candles []market.Candle, i int) bool {
	next := candles[i+1]
	if next.IsBearish() && next.Body() > candles[i].Body()*0.3 {
		return true
	}
	return next.Close < candles[i].Low
}

// markMitigation flips IsValid once a later candle's range overlaps the
// block zone: a bullish block is mitigated when a low trades into
// [low, high], a bearish block when a high does.
func (d *OrderBlockDetector) markMitigation(ob *OrderBlock, later []market.Candle) {
	for _, c := range later {
		switch ob.Type {
		case BullishOB:
			if c.Low >= ob.Low && c.Low <= ob.High {
				t := c.Time
				ob.IsValid = false
				ob.MitigatedAt = &t
				return
			}
		case BearishOB:
			if c.High >= ob.Low && c.High <= ob.High {
				t := c.Time
				ob.IsValid = false
				ob.MitigatedAt = &t
				return
			}
		}
	}
}

// score rates a block 0-100 from displacement strength and mitigation state
func (d *OrderBlockDetector) score(candles []market.Candle, i int, atr float64, valid bool) float64 {
	move := 0.0
	end := i + d.maxScan
	if end >= len(candles) {
		end = len(candles) - 1
	}
	for j := i + 1; j <= end; j++ {
		var dist float64
		if candles[i].IsBearish() {
			dist = candles[j].High - candles[i].Low
		} else {
			dist = candles[i].High - candles[j].Low
		}
		if dist > move {
			move = dist
		}
	}

	score := 50.0
	if atr > 0 {
		score += 25 * (move / (atr * 2)) // Full credit at 2x ATR displacement
	}
	if valid {
		score += 15
	}
	if score > 100 {
		score = 100
	}
	return score
}

// retain keeps the most recent keepPerSide blocks per polarity, newest last
func (d *OrderBlockDetector) retain(blocks []OrderBlock) []OrderBlock {
	var bullish, bearish []OrderBlock
	for _, b := range blocks {
		if b.Type == BullishOB {
			bullish = append(bullish, b)
		} else {
			bearish = append(bearish, b)
		}
	}
	if len(bullish) > d.keepPerSide {
		bullish = bullish[len(bullish)-d.keepPerSide:]
	}
	if len(bearish) > d.keepPerSide {
		bearish = bearish[len(bearish)-d.keepPerSide:]
	}

	out := append(bullish, bearish...)
	sort.Slice(out, func(i, j int) bool { return out[i].CandleTime.Before(out[j].CandleTime) })
	return out
}

// ValidBlocks filters to unmitigated blocks of one polarity
func ValidBlocks(blocks []OrderBlock, t OrderBlockType) []OrderBlock {
	var out []OrderBlock
	for _, b := range blocks {
		if b.Type == t && b.IsValid {
			out = append(out, b)
		}
	}
	return out
}

// MitigatedBlocks filters to mitigated blocks of one polarity, used for
// breaker retest entries.
func MitigatedBlocks(blocks []OrderBlock, t OrderBlockType) []OrderBlock {
	var out []OrderBlock
	for _, b := range blocks {
		if b.Type == t && !b.IsValid {
			out = append(out, b)
		}
	}
	return out
}
