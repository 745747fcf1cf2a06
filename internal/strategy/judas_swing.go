package strategy

import (
	"fmt"
	"time"

	"smc-backtester/internal/market"
	"smc-backtester/internal/smc"
)

// JudasSwingConfig configures the session Judas-swing reversal strategy
type JudasSwingConfig struct {
	StopBufferATR float64
}

// JudasSwing trades the London-open fake move: during the London kill zone,
// a run through the Asian session's high or low that rejects is faded back
// into the prior range.
type JudasSwing struct {
	config JudasSwingConfig
}

// NewJudasSwing creates the strategy with defaults filled in
func NewJudasSwing(config JudasSwingConfig) *JudasSwing {
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.3
	}
	return &JudasSwing{config: config}
}

func (s *JudasSwing) Name() string { return "JUDAS_SWING" }

func (s *JudasSwing) Analyze(ctx *Context) (*Signal, error) {
	zone, _ := smc.ClassifyKillZone(ctx.Now)
	if zone != smc.KillZoneLondonOpen {
		return nil, nil
	}

	asianHigh, asianLow, ok := s.asianRange(ctx.LTF, ctx.Now)
	if !ok {
		return nil, nil
	}
	atr := LastATR(ctx.LTF, 14)
	if atr <= 0 {
		return nil, nil
	}

	// The Judas move: since the London open, one side of the Asian range was
	// run and rejected.
	var dir Direction
	var sweptLevel, extreme float64
	found := false
	for i := len(ctx.LTF) - 1; i >= 0; i-- {
		c := ctx.LTF[i]
		if c.Time.UTC().Hour() < 7 || !sameUTCDate(c.Time, ctx.Now) {
			break
		}
		if c.High > asianHigh && c.Close < asianHigh {
			dir, sweptLevel, extreme, found = Short, asianHigh, c.High, true
			break
		}
		if c.Low < asianLow && c.Close > asianLow {
			dir, sweptLevel, extreme, found = Long, asianLow, c.Low, true
			break
		}
	}
	if !found {
		return nil, nil
	}

	entry := ctx.CurrentPrice
	var stop, target float64
	if dir == Short {
		stop = extreme + atr*s.config.StopBufferATR
		if stop <= entry {
			return nil, nil
		}
		target = asianLow // The opposite side of the range is the draw
		if target >= entry {
			target = entry - (stop-entry)*2
		}
	} else {
		stop = extreme - atr*s.config.StopBufferATR
		if stop >= entry {
			return nil, nil
		}
		target = asianHigh
		if target <= entry {
			target = entry + (entry-stop)*2
		}
	}

	confidence := 0.7
	if ctx.Analysis != nil && ctx.Analysis.OverallBias == biasFor(dir) {
		confidence += 0.08
	}

	reason := fmt.Sprintf("Judas swing through Asian %s %.5f during London open",
		sideName(dir), sweptLevel)
	return newSignal(s.Name(), ctx, dir, entry, stop, target, confidence, reason), nil
}

// asianRange returns the high/low of today's Asian session (00-07 UTC)
func (s *JudasSwing) asianRange(ltf []market.Candle, now time.Time) (float64, float64, bool) {
	high, low := 0.0, 0.0
	found := false
	for _, c := range ltf {
		if !sameUTCDate(c.Time, now) || c.Time.UTC().Hour() >= 7 {
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

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func sideName(dir Direction) string {
	if dir == Short {
		return "high"
	}
	return "low"
}
