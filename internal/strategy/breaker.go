package strategy

import (
	"fmt"

	"smc-backtester/internal/mtf"
	"smc-backtester/internal/smc"
)

// BreakerConfig configures the breaker-block retest strategy
type BreakerConfig struct {
	StopBufferATR float64
}

// Breaker trades mitigated order blocks with flipped polarity: a violated
// bullish block acts as resistance on the retest, a violated bearish block
// as support.
type Breaker struct {
	config BreakerConfig
}

// NewBreaker creates the strategy with defaults filled in
func NewBreaker(config BreakerConfig) *Breaker {
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.3
	}
	return &Breaker{config: config}
}

func (s *Breaker) Name() string { return "BREAKER_RETEST" }

func (s *Breaker) Analyze(ctx *Context) (*Signal, error) {
	a := ctx.Analysis
	if a == nil || len(ctx.LTF) == 0 {
		return nil, nil
	}
	atr := LastATR(ctx.LTF, 14)
	if atr <= 0 {
		return nil, nil
	}
	lastClose := ctx.LTF[len(ctx.LTF)-1].Close
	price := ctx.CurrentPrice

	// A mitigated bullish block that price has broken below is a bearish
	// breaker; the retest from below is a short.
	for _, ob := range smc.MitigatedBlocks(a.MTF.OrderBlocks, smc.BullishOB) {
		if lastClose >= ob.Low || !ob.Contains(price) {
			continue
		}
		stop := ob.High + atr*s.config.StopBufferATR
		risk := stop - price
		if risk <= 0 {
			continue
		}
		target := ResolveTarget(ctx, Short, price, risk)
		confidence := s.confidence(a, Short)
		reason := fmt.Sprintf("bearish breaker retest of broken block %.5f-%.5f", ob.Low, ob.High)
		return newSignal(s.Name(), ctx, Short, price, stop, target, confidence, reason), nil
	}

	for _, ob := range smc.MitigatedBlocks(a.MTF.OrderBlocks, smc.BearishOB) {
		if lastClose <= ob.High || !ob.Contains(price) {
			continue
		}
		stop := ob.Low - atr*s.config.StopBufferATR
		risk := price - stop
		if risk <= 0 {
			continue
		}
		target := ResolveTarget(ctx, Long, price, risk)
		confidence := s.confidence(a, Long)
		reason := fmt.Sprintf("bullish breaker retest of broken block %.5f-%.5f", ob.Low, ob.High)
		return newSignal(s.Name(), ctx, Long, price, stop, target, confidence, reason), nil
	}

	return nil, nil
}

func (s *Breaker) confidence(a *mtf.Analysis, dir Direction) float64 {
	confidence := 0.63
	if a.OverallBias == biasFor(dir) {
		confidence += 0.1
	}
	return confidence
}
