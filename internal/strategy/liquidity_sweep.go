package strategy

import (
	"fmt"

	"smc-backtester/internal/smc"
)

// LiquiditySweepConfig configures the sweep-and-reject strategy
type LiquiditySweepConfig struct {
	StopBufferATR float64 // Stop distance beyond the sweep extreme
}

// LiquiditySweep fades a liquidity sweep that rejected: a wick through a
// pool with the close back on the original side.
type LiquiditySweep struct {
	config LiquiditySweepConfig
}

// NewLiquiditySweep creates the strategy with defaults filled in
func NewLiquiditySweep(config LiquiditySweepConfig) *LiquiditySweep {
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.3
	}
	return &LiquiditySweep{config: config}
}

func (s *LiquiditySweep) Name() string { return "LIQUIDITY_SWEEP_REJECT" }

func (s *LiquiditySweep) Analyze(ctx *Context) (*Signal, error) {
	a := ctx.Analysis
	if a == nil || a.RecentSweep == nil || !a.RecentSweep.IsReversal {
		return nil, nil
	}
	sweep := a.RecentSweep

	atr := LastATR(ctx.LTF, 14)
	if atr <= 0 {
		return nil, nil
	}

	dir := Long
	if sweep.Bias == smc.BiasBearish {
		dir = Short
	}

	entry := ctx.CurrentPrice
	var stop float64
	if dir == Long {
		stop = sweep.Zone.Price - atr*s.config.StopBufferATR
		if stop >= entry {
			return nil, nil
		}
	} else {
		stop = sweep.Zone.Price + atr*s.config.StopBufferATR
		if stop <= entry {
			return nil, nil
		}
	}
	risk := entry - stop
	if dir == Short {
		risk = stop - entry
	}
	target := ResolveTarget(ctx, dir, entry, risk)

	confidence := 0.68
	if a.OverallBias == sweep.Bias {
		confidence += 0.1
	}
	if sweep.Zone.Touches > 1 {
		confidence += 0.05 // Equal-level pools hold more resting orders
	}

	reason := fmt.Sprintf("sweep and reject of %s liquidity at %.5f", sweep.Zone.Type, sweep.Zone.Price)
	return newSignal(s.Name(), ctx, dir, entry, stop, target, confidence, reason), nil
}
