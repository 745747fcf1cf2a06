// Package mtf composes the SMC detectors across three timeframes into a
// single multi-timeframe analysis with a confluence score.
package mtf

import (
	"github.com/rs/zerolog"

	"smc-backtester/internal/market"
	"smc-backtester/internal/smc"
)

// TimeframeAnalysis is the full detector output for one timeframe window
type TimeframeAnalysis struct {
	Timeframe      market.Timeframe
	Structure      smc.MarketStructure
	OrderBlocks    []smc.OrderBlock
	FairValueGaps  []smc.FairValueGap
	LiquidityZones []smc.LiquidityZone
}

// Analysis is the fused multi-timeframe read. It is a value object, fully
// recomputed on each call with no state carried between calls.
type Analysis struct {
	HTF TimeframeAnalysis
	MTF TimeframeAnalysis
	LTF TimeframeAnalysis

	ConfluenceScore float64 // 0-100
	OverallBias     smc.Bias

	PremiumDiscount *PremiumDiscount
	RecentCHoCH     *smc.StructureEvent
	Inducements     []smc.Inducement
	RecentSweep     *smc.LiquiditySweep
}

// Analyzer runs the detectors per timeframe and fuses results
type Analyzer struct {
	structure     *smc.MarketStructureAnalyzer
	orderBlocks   *smc.OrderBlockDetector
	fvgs          *smc.FVGDetector
	liquidity     *smc.LiquidityZoneDetector
	obLookback    int
	sweepLookback int
	logger        zerolog.Logger
}

// NewAnalyzer creates an analyzer with production detector defaults
func NewAnalyzer(logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		structure:     smc.NewMarketStructureAnalyzer(2),
		orderBlocks:   smc.NewOrderBlockDetector(),
		fvgs:          smc.NewFVGDetector(0.1, 0.5),
		liquidity:     smc.NewLiquidityZoneDetector(2),
		obLookback:    50,
		sweepLookback: 20,
		logger:        logger.With().Str("component", "mtf").Logger(),
	}
}

// Analyze runs all detectors on the three timeframe windows and fuses them
func (a *Analyzer) Analyze(htf, mtfCandles, ltf []market.Candle) *Analysis {
	res := &Analysis{
		HTF: a.analyzeTimeframe(htf),
		MTF: a.analyzeTimeframe(mtfCandles),
		LTF: a.analyzeTimeframe(ltf),
	}

	res.ConfluenceScore = a.confluenceScore(res)
	res.OverallBias = ResolveBias(res.HTF.Structure.Bias, res.MTF.Structure.Bias, res.LTF.Structure.Bias)
	res.PremiumDiscount = a.premiumDiscount(res.HTF.Structure.SwingPoints)
	res.RecentCHoCH = a.recentCHoCH(res)
	res.RecentSweep = a.liquidity.RecentSweep(res.MTF.LiquidityZones, mtfCandles, a.sweepLookback)

	if len(ltf) > 0 {
		current := ltf[len(ltf)-1].Close
		res.Inducements = a.liquidity.Inducements(res.MTF.LiquidityZones, res.MTF.Structure.SwingPoints, current)
	}

	a.logger.Debug().
		Float64("confluence", res.ConfluenceScore).
		Str("bias", string(res.OverallBias)).
		Msg("multi-timeframe analysis complete")
	return res
}

func (a *Analyzer) analyzeTimeframe(candles []market.Candle) TimeframeAnalysis {
	ta := TimeframeAnalysis{}
	if len(candles) == 0 {
		ta.Structure = smc.MarketStructure{Bias: smc.BiasNeutral, LastStructure: smc.StructureNone}
		return ta
	}
	ta.Timeframe = candles[0].Timeframe
	ta.Structure = a.structure.Analyze(candles)
	ta.OrderBlocks = a.orderBlocks.Detect(candles, a.obLookback)
	ta.FairValueGaps = a.fvgs.Detect(candles)
	ta.LiquidityZones = a.liquidity.Detect(candles)
	return ta
}

// confluenceScore is a capped additive sum over bias alignment and zone
// presence. Alignment only counts when the matching bias is non-neutral.
func (a *Analyzer) confluenceScore(res *Analysis) float64 {
	score := 0.0
	htfBias := res.HTF.Structure.Bias
	mtfBias := res.MTF.Structure.Bias
	ltfBias := res.LTF.Structure.Bias

	if htfBias != smc.BiasNeutral && htfBias == mtfBias {
		score += 20
	}
	if mtfBias != smc.BiasNeutral && mtfBias == ltfBias {
		score += 15
	}
	if htfBias != smc.BiasNeutral && htfBias == ltfBias {
		score += 5
	}

	if len(res.HTF.OrderBlocks) > 0 {
		score += 10
	}
	if len(res.MTF.OrderBlocks) > 0 {
		score += 15
	}
	if len(res.MTF.FairValueGaps) > 0 {
		score += 15
	}
	if len(res.HTF.LiquidityZones) > 0 {
		score += 10
	}
	if len(res.MTF.LiquidityZones) > 0 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// premiumDiscount builds the Fibonacci split of the most recent HTF swing
// high/low pair. Nil when either side is missing.
func (a *Analyzer) premiumDiscount(points []smc.SwingPoint) *PremiumDiscount {
	highs := smc.FilterByType(points, smc.SwingHigh)
	lows := smc.FilterByType(points, smc.SwingLow)
	if len(highs) == 0 || len(lows) == 0 {
		return nil
	}
	high := highs[len(highs)-1].Price
	low := lows[len(lows)-1].Price
	if high <= low {
		return nil
	}
	pd := CalculatePremiumDiscount(high, low)
	return &pd
}

// recentCHoCH surfaces the freshest change of character across timeframes,
// preferring the lower timeframe when both carry one.
func (a *Analyzer) recentCHoCH(res *Analysis) *smc.StructureEvent {
	for _, ta := range []TimeframeAnalysis{res.LTF, res.MTF, res.HTF} {
		if ta.Structure.LastCHOCH != nil {
			return ta.Structure.LastCHOCH
		}
	}
	return nil
}

// ResolveBias fuses the three timeframe biases into one. HTF and MTF
// agreement wins; a lone non-neutral HTF wins next; MTF/LTF agreement
// carries only when HTF is neutral; anything else is neutral.
func ResolveBias(htf, mtf, ltf smc.Bias) smc.Bias {
	switch {
	case htf != smc.BiasNeutral && htf == mtf:
		return htf
	case htf != smc.BiasNeutral && mtf == smc.BiasNeutral:
		return htf
	case htf == smc.BiasNeutral && mtf != smc.BiasNeutral && mtf == ltf:
		return mtf
	default:
		return smc.BiasNeutral
	}
}
