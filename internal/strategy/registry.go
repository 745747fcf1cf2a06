package strategy

import "fmt"

// factories maps strategy identifiers to their default constructors
var factories = map[string]func() Strategy{
	"OB_FVG_CONFLUENCE":      func() Strategy { return NewOrderBlockFVG(OrderBlockFVGConfig{}) },
	"LIQUIDITY_SWEEP_REJECT": func() Strategy { return NewLiquiditySweep(LiquiditySweepConfig{}) },
	"BOS_PULLBACK":           func() Strategy { return NewBOSPullback(BOSPullbackConfig{}) },
	"FAILED_BREAKOUT_WICK": func() Strategy {
		return NewFailedBreakout(FailedBreakoutConfig{Variant: VariantWick})
	},
	"FAILED_BREAKOUT_CLOSE_BACK": func() Strategy {
		return NewFailedBreakout(FailedBreakoutConfig{Variant: VariantClose})
	},
	"FAILED_BREAKOUT_RETEST": func() Strategy {
		return NewFailedBreakout(FailedBreakoutConfig{Variant: VariantRetest})
	},
	"EMA_TREND_PULLBACK": func() Strategy { return NewTrendPullback(TrendPullbackConfig{}) },
	"JUDAS_SWING":        func() Strategy { return NewJudasSwing(JudasSwingConfig{}) },
	"FVG_FILL":           func() Strategy { return NewFVGFill(FVGFillConfig{}) },
	"BREAKER_RETEST":     func() Strategy { return NewBreaker(BreakerConfig{}) },
	"PREV_DAY_SWEEP":     func() Strategy { return NewPrevDayLevels(PrevDayLevelsConfig{}) },
}

// AllStrategyNames lists every registered identifier in the default
// evaluation order.
var AllStrategyNames = []string{
	"OB_FVG_CONFLUENCE",
	"LIQUIDITY_SWEEP_REJECT",
	"BOS_PULLBACK",
	"FAILED_BREAKOUT_WICK",
	"FAILED_BREAKOUT_CLOSE_BACK",
	"FAILED_BREAKOUT_RETEST",
	"EMA_TREND_PULLBACK",
	"JUDAS_SWING",
	"FVG_FILL",
	"BREAKER_RETEST",
	"PREV_DAY_SWEEP",
}

// Build instantiates strategies by name, preserving the given order. The
// order matters: it is the engine's selection tie-break.
func Build(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		f, ok := factories[n]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q", n)
		}
		out = append(out, f())
	}
	return out, nil
}
