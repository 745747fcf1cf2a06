package strategy

import (
	"fmt"

	"smc-backtester/internal/smc"
)

// FVGFillConfig configures the standalone FVG fill strategy
type FVGFillConfig struct {
	StopBufferATR float64
}

// FVGFill trades price returning into an unfilled MTF fair value gap in
// the direction of the gap, expecting the imbalance to hold as support or
// resistance.
type FVGFill struct {
	config FVGFillConfig
}

// NewFVGFill creates the strategy with defaults filled in
func NewFVGFill(config FVGFillConfig) *FVGFill {
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.25
	}
	return &FVGFill{config: config}
}

func (s *FVGFill) Name() string { return "FVG_FILL" }

func (s *FVGFill) Analyze(ctx *Context) (*Signal, error) {
	a := ctx.Analysis
	if a == nil {
		return nil, nil
	}
	atr := LastATR(ctx.LTF, 14)
	if atr <= 0 {
		return nil, nil
	}

	price := ctx.CurrentPrice
	for _, g := range smc.UnfilledGaps(a.MTF.FairValueGaps) {
		if !g.Contains(price) {
			continue
		}

		var dir Direction
		var stop float64
		if g.Type == smc.BullishFVG {
			dir = Long
			stop = g.Low - atr*s.config.StopBufferATR
		} else {
			dir = Short
			stop = g.High + atr*s.config.StopBufferATR
		}

		risk := price - stop
		if dir == Short {
			risk = stop - price
		}
		if risk <= 0 {
			continue
		}
		target := ResolveTarget(ctx, dir, price, risk)

		confidence := 0.6
		if a.OverallBias == biasFor(dir) {
			confidence += 0.12
		} else if a.OverallBias != smc.BiasNeutral {
			continue // Gap fill against the bias is a skip, not a fade
		}

		reason := fmt.Sprintf("price inside unfilled %s FVG %.5f-%.5f", g.Type, g.Low, g.High)
		return newSignal(s.Name(), ctx, dir, price, stop, target, confidence, reason), nil
	}
	return nil, nil
}
