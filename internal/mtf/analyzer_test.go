package mtf

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"smc-backtester/internal/market"
	"smc-backtester/internal/smc"
)

func trendingCandles(n int, start, step float64) []market.Candle {
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, n)
	v := start
	for i := 0; i < n; i++ {
		// Rising three-steps-up, one-step-down path
		if i%4 == 3 {
			v -= step
		} else {
			v += step
		}
		candles[i] = market.Candle{
			Time: base.Add(time.Duration(i) * 15 * time.Minute),
			Open: v - step/2, High: v + step, Low: v - step, Close: v,
		}
	}
	return candles
}

func TestAnalyzeProducesBoundedScore(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	htf := trendingCandles(60, 2000, 5)
	mtf := trendingCandles(120, 2000, 2)
	ltf := trendingCandles(60, 2000, 1)

	analysis := analyzer.Analyze(htf, mtf, ltf)

	if analysis == nil {
		t.Fatal("expected an analysis")
	}
	if analysis.ConfluenceScore < 0 || analysis.ConfluenceScore > 100 {
		t.Errorf("confluence score out of range: %f", analysis.ConfluenceScore)
	}
	if analysis.HTF.Structure.Bias == "" {
		t.Error("expected a structure read per timeframe")
	}
}

func TestConfluenceScoreAlignment(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	res := &Analysis{}
	res.HTF.Structure.Bias = smc.BiasBullish
	res.MTF.Structure.Bias = smc.BiasBullish
	res.LTF.Structure.Bias = smc.BiasBullish

	// Full bias alignment with no zones: 20 + 15 + 5
	if got := analyzer.confluenceScore(res); got != 40 {
		t.Errorf("expected 40, got %f", got)
	}

	res.MTF.OrderBlocks = []smc.OrderBlock{{Type: smc.BullishOB}}
	res.MTF.FairValueGaps = []smc.FairValueGap{{Type: smc.BullishFVG}}
	if got := analyzer.confluenceScore(res); got != 70 {
		t.Errorf("expected 70 with MTF zones, got %f", got)
	}
}

// Neutral biases never count as alignment even when they match.
func TestConfluenceScoreNeutralNoCredit(t *testing.T) {
	analyzer := NewAnalyzer(zerolog.Nop())

	res := &Analysis{}
	res.HTF.Structure.Bias = smc.BiasNeutral
	res.MTF.Structure.Bias = smc.BiasNeutral
	res.LTF.Structure.Bias = smc.BiasNeutral

	if got := analyzer.confluenceScore(res); got != 0 {
		t.Errorf("expected 0 for all-neutral, got %f", got)
	}
}

func TestResolveBias(t *testing.T) {
	cases := []struct {
		htf, mtf, ltf, want smc.Bias
	}{
		{smc.BiasBullish, smc.BiasBullish, smc.BiasBearish, smc.BiasBullish},
		{smc.BiasBearish, smc.BiasBearish, smc.BiasNeutral, smc.BiasBearish},
		{smc.BiasBullish, smc.BiasNeutral, smc.BiasNeutral, smc.BiasBullish},
		{smc.BiasNeutral, smc.BiasBearish, smc.BiasBearish, smc.BiasBearish},
		{smc.BiasNeutral, smc.BiasBearish, smc.BiasBullish, smc.BiasNeutral},
		{smc.BiasBullish, smc.BiasBearish, smc.BiasBearish, smc.BiasNeutral},
		{smc.BiasNeutral, smc.BiasNeutral, smc.BiasBullish, smc.BiasNeutral},
	}
	for i, tc := range cases {
		if got := ResolveBias(tc.htf, tc.mtf, tc.ltf); got != tc.want {
			t.Errorf("case %d: expected %s, got %s", i, tc.want, got)
		}
	}
}
