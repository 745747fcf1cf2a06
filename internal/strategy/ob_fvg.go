package strategy

import (
	"fmt"

	"smc-backtester/internal/smc"
)

// OrderBlockFVGConfig configures the order-block + FVG confluence strategy
type OrderBlockFVGConfig struct {
	MinConfluence float64 // Minimum multi-timeframe confluence score
	StopBufferATR float64 // Stop distance beyond the block, in ATR
	MinOBScore    float64 // Minimum order block strength
}

// OrderBlockFVG trades retests of an unmitigated MTF order block that
// overlaps an unfilled fair value gap, in the direction of the overall
// bias.
type OrderBlockFVG struct {
	config OrderBlockFVGConfig
}

// NewOrderBlockFVG creates the strategy with defaults filled in
func NewOrderBlockFVG(config OrderBlockFVGConfig) *OrderBlockFVG {
	if config.MinConfluence == 0 {
		config.MinConfluence = 40
	}
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.25
	}
	if config.MinOBScore == 0 {
		config.MinOBScore = 50
	}
	return &OrderBlockFVG{config: config}
}

func (s *OrderBlockFVG) Name() string { return "OB_FVG_CONFLUENCE" }

func (s *OrderBlockFVG) Analyze(ctx *Context) (*Signal, error) {
	a := ctx.Analysis
	if a == nil || a.ConfluenceScore < s.config.MinConfluence {
		return nil, nil
	}
	bias := a.OverallBias
	if bias == smc.BiasNeutral {
		return nil, nil
	}

	atr := LastATR(ctx.LTF, 14)
	if atr <= 0 {
		return nil, nil
	}

	obType, fvgType, dir := smc.BullishOB, smc.BullishFVG, Long
	if bias == smc.BiasBearish {
		obType, fvgType, dir = smc.BearishOB, smc.BearishFVG, Short
	}

	for _, ob := range smc.ValidBlocks(a.MTF.OrderBlocks, obType) {
		if ob.Score < s.config.MinOBScore || !ob.Contains(ctx.CurrentPrice) {
			continue
		}
		gap, ok := s.overlappingGap(a.MTF.FairValueGaps, fvgType, ob)
		if !ok {
			continue
		}

		entry := ctx.CurrentPrice
		var stop float64
		if dir == Long {
			stop = ob.Low - atr*s.config.StopBufferATR
		} else {
			stop = ob.High + atr*s.config.StopBufferATR
		}
		risk := entry - stop
		if dir == Short {
			risk = stop - entry
		}
		if risk <= 0 {
			continue
		}
		target := ResolveTarget(ctx, dir, entry, risk)

		confidence := 0.62 + a.ConfluenceScore/100*0.2
		if gap.Contains(entry) {
			confidence += 0.05
		}
		if confidence > 1 {
			confidence = 1
		}

		reason := fmt.Sprintf("%s order block %.5f-%.5f overlapping FVG, confluence %.0f",
			bias, ob.Low, ob.High, a.ConfluenceScore)
		return newSignal(s.Name(), ctx, dir, entry, stop, target, confidence, reason), nil
	}
	return nil, nil
}

// overlappingGap finds an unfilled gap of the wanted type whose zone
// overlaps the block.
func (s *OrderBlockFVG) overlappingGap(gaps []smc.FairValueGap, t smc.FVGType, ob smc.OrderBlock) (smc.FairValueGap, bool) {
	for _, g := range gaps {
		if g.Type != t || g.IsFilled {
			continue
		}
		if g.Low <= ob.High && g.High >= ob.Low {
			return g, true
		}
	}
	return smc.FairValueGap{}, false
}
