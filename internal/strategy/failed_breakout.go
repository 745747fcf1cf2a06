package strategy

import (
	"fmt"

	"smc-backtester/internal/market"
	"smc-backtester/internal/smc"
)

// FailedBreakoutVariant selects which rejection shape the strategy trades.
// The three variants share detection of a level break; they differ only in
// the confirmation required before fading it.
type FailedBreakoutVariant string

const (
	// VariantWick fades a single candle that wicked through the level but
	// closed back inside.
	VariantWick FailedBreakoutVariant = "WICK"
	// VariantClose requires the break candle to close beyond the level and
	// the following candle to close back through it.
	VariantClose FailedBreakoutVariant = "CLOSE_BACK"
	// VariantRetest waits for the failed level to be retested from the
	// original side before fading.
	VariantRetest FailedBreakoutVariant = "RETEST"
)

// FailedBreakoutConfig configures one failed-breakout variant
type FailedBreakoutConfig struct {
	Variant       FailedBreakoutVariant
	Lookback      int // LTF candles scanned for the break
	StopBufferATR float64
}

// FailedBreakout fades breakouts of recent swing levels that failed to
// hold. Registered three times, once per variant.
type FailedBreakout struct {
	config FailedBreakoutConfig
}

// NewFailedBreakout creates one variant with defaults filled in
func NewFailedBreakout(config FailedBreakoutConfig) *FailedBreakout {
	if config.Variant == "" {
		config.Variant = VariantWick
	}
	if config.Lookback == 0 {
		config.Lookback = 10
	}
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.3
	}
	return &FailedBreakout{config: config}
}

func (s *FailedBreakout) Name() string {
	return "FAILED_BREAKOUT_" + string(s.config.Variant)
}

func (s *FailedBreakout) Analyze(ctx *Context) (*Signal, error) {
	a := ctx.Analysis
	if a == nil || len(ctx.LTF) < s.config.Lookback+2 {
		return nil, nil
	}

	atr := LastATR(ctx.LTF, 14)
	if atr <= 0 {
		return nil, nil
	}

	for _, p := range a.MTF.Structure.SwingPoints {
		if p.Type == smc.SwingHigh {
			if extreme, ok := s.failedBreakAbove(ctx.LTF, p.Price); ok {
				return s.signal(ctx, Short, p.Price, extreme, atr), nil
			}
		} else {
			if extreme, ok := s.failedBreakBelow(ctx.LTF, p.Price); ok {
				return s.signal(ctx, Long, p.Price, extreme, atr), nil
			}
		}
	}
	return nil, nil
}

// failedBreakAbove scans the trailing lookback for a break above the level
// that failed per the configured variant. It returns the break extreme.
func (s *FailedBreakout) failedBreakAbove(ltf []market.Candle, level float64) (float64, bool) {
	start := len(ltf) - s.config.Lookback
	if start < 1 {
		start = 1
	}
	for i := start; i < len(ltf); i++ {
		c := ltf[i]
		if c.High <= level {
			continue
		}
		switch s.config.Variant {
		case VariantWick:
			if c.Close < level {
				return c.High, true
			}
		case VariantClose:
			if c.Close > level && i+1 < len(ltf) && ltf[i+1].Close < level {
				return maxFloat(c.High, ltf[i+1].High), true
			}
		case VariantRetest:
			if c.Close < level && i+1 < len(ltf) {
				// The level must be touched again from below after the failure.
				for j := i + 1; j < len(ltf); j++ {
					if ltf[j].High >= level && ltf[j].Close < level {
						return c.High, true
					}
				}
			}
		}
	}
	return 0, false
}

func (s *FailedBreakout) failedBreakBelow(ltf []market.Candle, level float64) (float64, bool) {
	start := len(ltf) - s.config.Lookback
	if start < 1 {
		start = 1
	}
	for i := start; i < len(ltf); i++ {
		c := ltf[i]
		if c.Low >= level {
			continue
		}
		switch s.config.Variant {
		case VariantWick:
			if c.Close > level {
				return c.Low, true
			}
		case VariantClose:
			if c.Close < level && i+1 < len(ltf) && ltf[i+1].Close > level {
				return minFloat(c.Low, ltf[i+1].Low), true
			}
		case VariantRetest:
			if c.Close > level && i+1 < len(ltf) {
				for j := i + 1; j < len(ltf); j++ {
					if ltf[j].Low <= level && ltf[j].Close > level {
						return c.Low, true
					}
				}
			}
		}
	}
	return 0, false
}

func (s *FailedBreakout) signal(ctx *Context, dir Direction, level, extreme, atr float64) *Signal {
	entry := ctx.CurrentPrice
	var stop float64
	if dir == Long {
		stop = extreme - atr*s.config.StopBufferATR
		if stop >= entry {
			return nil
		}
	} else {
		stop = extreme + atr*s.config.StopBufferATR
		if stop <= entry {
			return nil
		}
	}
	risk := entry - stop
	if dir == Short {
		risk = stop - entry
	}
	target := ResolveTarget(ctx, dir, entry, risk)

	confidence := 0.62
	switch s.config.Variant {
	case VariantClose:
		confidence = 0.66 // Confirmed close back through the level
	case VariantRetest:
		confidence = 0.70 // Strongest confirmation
	}
	if ctx.Analysis.OverallBias == biasFor(dir) {
		confidence += 0.08
	}

	reason := fmt.Sprintf("failed breakout (%s) of level %.5f", s.config.Variant, level)
	return newSignal(s.Name(), ctx, dir, entry, stop, target, confidence, reason)
}

func biasFor(dir Direction) smc.Bias {
	if dir == Long {
		return smc.BiasBullish
	}
	return smc.BiasBearish
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
