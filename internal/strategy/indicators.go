package strategy

import (
	talib "github.com/markcheno/go-talib"

	"smc-backtester/internal/market"
)

// LastEMA returns the most recent EMA value for the close series, 0 when
// the series is shorter than the period.
func LastEMA(candles []market.Candle, period int) float64 {
	if len(candles) < period {
		return 0
	}
	ema := talib.Ema(market.Closes(candles), period)
	if len(ema) == 0 {
		return 0
	}
	return ema[len(ema)-1]
}

// LastATR returns the most recent ATR value, 0 when the series is too short
func LastATR(candles []market.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}
	atr := talib.Atr(market.Highs(candles), market.Lows(candles), market.Closes(candles), period)
	if len(atr) == 0 {
		return 0
	}
	return atr[len(atr)-1]
}
