package backtest

import "math"

// tradingDaysPerYear annualizes the per-trade Sharpe ratio
const tradingDaysPerYear = 252

// computeMetrics derives the summary statistics from the completed trades
// and the drawdown figures tracked during the replay.
func computeMetrics(trades []Trade, initialBalance, finalBalance, maxDD, maxDDPct float64) Metrics {
	m := Metrics{
		TotalTrades:        len(trades),
		MaxDrawdown:        maxDD,
		MaxDrawdownPercent: maxDDPct,
		FinalBalance:       finalBalance,
		TotalPnL:           finalBalance - initialBalance,
		StrategyStats:      make(map[string]*StrategyPerformance),
	}
	if initialBalance > 0 {
		m.TotalPnLPercent = m.TotalPnL / initialBalance * 100
	}
	if len(trades) == 0 {
		return m
	}

	var sumWins, sumLosses, sumR float64
	for _, t := range trades {
		perf := m.StrategyStats[t.Strategy]
		if perf == nil {
			perf = &StrategyPerformance{}
			m.StrategyStats[t.Strategy] = perf
		}
		perf.Trades++
		perf.NetPnL += t.PnL

		sumR += t.RMultiple
		if t.PnL > 0 {
			m.WinningTrades++
			perf.Wins++
			sumWins += t.PnL
		} else {
			m.LosingTrades++
			perf.Losses++
			sumLosses += -t.PnL
		}
	}
	for _, perf := range m.StrategyStats {
		perf.WinRate = float64(perf.Wins) / float64(perf.Trades) * 100
	}

	m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	m.GrossProfit = sumWins
	m.GrossLoss = sumLosses
	m.AverageRR = sumR / float64(m.TotalTrades)

	if sumLosses > 0 {
		m.ProfitFactor = sumWins / sumLosses
	} else if sumWins > 0 {
		m.ProfitFactor = math.Inf(1)
	}
	if m.WinningTrades > 0 {
		m.AverageWin = sumWins / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = -sumLosses / float64(m.LosingTrades)
	}

	m.SharpeRatio = sharpeRatio(trades, initialBalance)
	return m
}

// sharpeRatio annualizes the mean/stddev of per-trade returns relative to
// the starting balance. Fewer than two trades, or a flat return series,
// yields zero.
func sharpeRatio(trades []Trade, initialBalance float64) float64 {
	if len(trades) < 2 || initialBalance <= 0 {
		return 0
	}
	returns := make([]float64, len(trades))
	var mean float64
	for i, t := range trades {
		returns[i] = t.PnL / initialBalance
		mean += returns[i]
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return mean / stddev * math.Sqrt(tradingDaysPerYear)
}
