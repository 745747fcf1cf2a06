package strategy

import (
	"fmt"

	"smc-backtester/internal/smc"
)

// TrendPullbackConfig configures the EMA trend pullback strategy
type TrendPullbackConfig struct {
	FastPeriod    int     // Default 9
	MidPeriod     int     // Default 21
	SlowPeriod    int     // Default 50
	PullbackBand  float64 // Entry proximity to the mid EMA, as a fraction
	StopBufferATR float64
}

// TrendPullback trades pullbacks to the mid EMA while the 9/21/50 stack is
// aligned with the overall bias.
type TrendPullback struct {
	config TrendPullbackConfig
}

// NewTrendPullback creates the strategy with defaults filled in
func NewTrendPullback(config TrendPullbackConfig) *TrendPullback {
	if config.FastPeriod == 0 {
		config.FastPeriod = 9
	}
	if config.MidPeriod == 0 {
		config.MidPeriod = 21
	}
	if config.SlowPeriod == 0 {
		config.SlowPeriod = 50
	}
	if config.PullbackBand == 0 {
		config.PullbackBand = 0.0015
	}
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.5
	}
	return &TrendPullback{config: config}
}

func (s *TrendPullback) Name() string { return "EMA_TREND_PULLBACK" }

func (s *TrendPullback) Analyze(ctx *Context) (*Signal, error) {
	if len(ctx.LTF) < s.config.SlowPeriod+10 {
		return nil, nil
	}

	fast := LastEMA(ctx.LTF, s.config.FastPeriod)
	mid := LastEMA(ctx.LTF, s.config.MidPeriod)
	slow := LastEMA(ctx.LTF, s.config.SlowPeriod)
	atr := LastATR(ctx.LTF, 14)
	if fast == 0 || mid == 0 || slow == 0 || atr <= 0 {
		return nil, nil
	}

	price := ctx.CurrentPrice
	nearMid := price >= mid*(1-s.config.PullbackBand) && price <= mid*(1+s.config.PullbackBand)
	if !nearMid {
		return nil, nil
	}

	var dir Direction
	switch {
	case fast > mid && mid > slow:
		dir = Long
	case fast < mid && mid < slow:
		dir = Short
	default:
		return nil, nil
	}

	entry := price
	var stop float64
	if dir == Long {
		stop = slow - atr*s.config.StopBufferATR
		if stop >= entry {
			stop = entry - atr
		}
	} else {
		stop = slow + atr*s.config.StopBufferATR
		if stop <= entry {
			stop = entry + atr
		}
	}
	risk := entry - stop
	if dir == Short {
		risk = stop - entry
	}
	target := ResolveTarget(ctx, dir, entry, risk)

	confidence := 0.6
	if ctx.Analysis != nil && ctx.Analysis.OverallBias == biasFor(dir) {
		confidence += 0.12
	}
	if ctx.Analysis != nil && ctx.Analysis.OverallBias != smc.BiasNeutral && ctx.Analysis.OverallBias != biasFor(dir) {
		return nil, nil // Never fade the multi-timeframe bias
	}

	reason := fmt.Sprintf("EMA %d/%d/%d stack aligned, pullback to EMA%d at %.5f",
		s.config.FastPeriod, s.config.MidPeriod, s.config.SlowPeriod, s.config.MidPeriod, mid)
	return newSignal(s.Name(), ctx, dir, entry, stop, target, confidence, reason), nil
}
