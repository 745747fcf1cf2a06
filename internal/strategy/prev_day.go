package strategy

import (
	"fmt"
	"time"

	"smc-backtester/internal/market"
)

// PrevDayLevelsConfig configures the previous-day high/low sweep strategy
type PrevDayLevelsConfig struct {
	Lookback      int // LTF candles scanned for the sweep
	StopBufferATR float64
}

// PrevDayLevels fades a sweep of the previous UTC day's high or low that
// closed back inside the prior day's range.
type PrevDayLevels struct {
	config PrevDayLevelsConfig
}

// NewPrevDayLevels creates the strategy with defaults filled in
func NewPrevDayLevels(config PrevDayLevelsConfig) *PrevDayLevels {
	if config.Lookback == 0 {
		config.Lookback = 6
	}
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.3
	}
	return &PrevDayLevels{config: config}
}

func (s *PrevDayLevels) Name() string { return "PREV_DAY_SWEEP" }

func (s *PrevDayLevels) Analyze(ctx *Context) (*Signal, error) {
	pdh, pdl, ok := s.previousDayRange(ctx.LTF, ctx.Now)
	if !ok {
		return nil, nil
	}
	atr := LastATR(ctx.LTF, 14)
	if atr <= 0 {
		return nil, nil
	}

	start := len(ctx.LTF) - s.config.Lookback
	if start < 0 {
		start = 0
	}

	for i := len(ctx.LTF) - 1; i >= start; i-- {
		c := ctx.LTF[i]
		if !sameUTCDate(c.Time, ctx.Now) {
			break
		}
		if c.High > pdh && c.Close < pdh {
			entry := ctx.CurrentPrice
			stop := c.High + atr*s.config.StopBufferATR
			if stop <= entry {
				return nil, nil
			}
			target := pdl
			if target >= entry {
				target = entry - (stop-entry)*2
			}
			confidence := s.confidence(ctx, Short)
			reason := fmt.Sprintf("sweep of previous day high %.5f rejected", pdh)
			return newSignal(s.Name(), ctx, Short, entry, stop, target, confidence, reason), nil
		}
		if c.Low < pdl && c.Close > pdl {
			entry := ctx.CurrentPrice
			stop := c.Low - atr*s.config.StopBufferATR
			if stop >= entry {
				return nil, nil
			}
			target := pdh
			if target <= entry {
				target = entry + (entry-stop)*2
			}
			confidence := s.confidence(ctx, Long)
			reason := fmt.Sprintf("sweep of previous day low %.5f rejected", pdl)
			return newSignal(s.Name(), ctx, Long, entry, stop, target, confidence, reason), nil
		}
	}
	return nil, nil
}

func (s *PrevDayLevels) confidence(ctx *Context, dir Direction) float64 {
	confidence := 0.66
	if ctx.Analysis != nil && ctx.Analysis.OverallBias == biasFor(dir) {
		confidence += 0.1
	}
	return confidence
}

// previousDayRange returns the high/low of the UTC day before now
func (s *PrevDayLevels) previousDayRange(ltf []market.Candle, now time.Time) (float64, float64, bool) {
	prev := now.UTC().AddDate(0, 0, -1)
	high, low := 0.0, 0.0
	found := false
	for _, c := range ltf {
		if !sameUTCDate(c.Time, prev) {
			continue
		}
		if !found {
			high, low, found = c.High, c.Low, true
			continue
		}
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low, found
}
