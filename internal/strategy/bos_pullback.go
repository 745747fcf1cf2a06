package strategy

import (
	"fmt"

	"smc-backtester/internal/mtf"
	"smc-backtester/internal/smc"
)

// BOSPullbackConfig configures the break-of-structure pullback strategy
type BOSPullbackConfig struct {
	StopBufferATR float64
}

// BOSPullback enters after an MTF break of structure once price has pulled
// back into discount (for longs) or premium (for shorts).
type BOSPullback struct {
	config BOSPullbackConfig
}

// NewBOSPullback creates the strategy with defaults filled in
func NewBOSPullback(config BOSPullbackConfig) *BOSPullback {
	if config.StopBufferATR == 0 {
		config.StopBufferATR = 0.5
	}
	return &BOSPullback{config: config}
}

func (s *BOSPullback) Name() string { return "BOS_PULLBACK" }

func (s *BOSPullback) Analyze(ctx *Context) (*Signal, error) {
	a := ctx.Analysis
	if a == nil || a.MTF.Structure.LastBOS == nil || a.PremiumDiscount == nil {
		return nil, nil
	}
	bos := a.MTF.Structure.LastBOS
	pd := a.PremiumDiscount

	atr := LastATR(ctx.LTF, 14)
	if atr <= 0 {
		return nil, nil
	}

	zone := pd.ZoneAt(ctx.CurrentPrice)
	var dir Direction
	switch {
	case bos.Bias == smc.BiasBullish && zone == mtf.ZoneDiscount:
		dir = Long
	case bos.Bias == smc.BiasBearish && zone == mtf.ZonePremium:
		dir = Short
	default:
		return nil, nil
	}

	entry := ctx.CurrentPrice
	var stop float64
	if dir == Long {
		stop = s.protectiveSwing(a.MTF.Structure.SwingPoints, smc.SwingLow, entry)
		if stop == 0 {
			stop = entry - atr
		}
		stop -= atr * s.config.StopBufferATR
	} else {
		stop = s.protectiveSwing(a.MTF.Structure.SwingPoints, smc.SwingHigh, entry)
		if stop == 0 {
			stop = entry + atr
		}
		stop += atr * s.config.StopBufferATR
	}
	risk := entry - stop
	if dir == Short {
		risk = stop - entry
	}
	if risk <= 0 {
		return nil, nil
	}
	target := ResolveTarget(ctx, dir, entry, risk)

	confidence := 0.64 + a.ConfluenceScore/100*0.15
	if pd.InOTE(entry, dir == Long) {
		confidence += 0.08 // Deep pullback into the OTE band
	}
	if confidence > 1 {
		confidence = 1
	}

	reason := fmt.Sprintf("BOS at %.5f, pullback into %s", bos.Price, zone)
	return newSignal(s.Name(), ctx, dir, entry, stop, target, confidence, reason), nil
}

// protectiveSwing returns the nearest swing of the wanted type on the stop
// side of the entry, 0 when none exists.
func (s *BOSPullback) protectiveSwing(points []smc.SwingPoint, t smc.SwingType, entry float64) float64 {
	best := 0.0
	for _, p := range points {
		if p.Type != t {
			continue
		}
		if t == smc.SwingLow && p.Price < entry && p.Price > best {
			best = p.Price
		}
		if t == smc.SwingHigh && p.Price > entry && (best == 0 || p.Price < best) {
			best = p.Price
		}
	}
	return best
}
