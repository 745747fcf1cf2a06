package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"smc-backtester/config"
	"smc-backtester/internal/market"
	"smc-backtester/internal/strategy"
)

var simBase = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) // A Monday morning

func testConfig() config.BacktestConfig {
	cfg := config.BacktestConfig{
		Symbol:         "XAUUSD",
		InitialBalance: 10000,
		RiskPercent:    1,
	}
	cfg.ApplyDefaults()
	return cfg
}

func testSpec() market.SymbolSpec {
	return market.SymbolSpec{
		Symbol: "XAUUSD", PipSize: 0.1, ContractSize: 100,
		VolumeStep: 0.01, MinVolume: 0.01, MaxVolume: 100,
		TickSize: 0.01, TickValue: 1,
	}
}

func newTestSimulator(t *testing.T, cfg config.BacktestConfig) *Simulator {
	t.Helper()
	sim, err := NewSimulator(cfg, testSpec(), zerolog.Nop())
	if err != nil {
		t.Fatalf("building simulator: %v", err)
	}
	return sim
}

func flatCandles(n int) []market.Candle {
	candles := make([]market.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = market.Candle{
			Symbol: "XAUUSD", Timeframe: market.TF15m,
			Time: simBase.Add(time.Duration(i) * 15 * time.Minute),
			Open: 2000, High: 2000.5, Low: 1999.5, Close: 2000,
		}
	}
	return candles
}

// A series shorter than the minimum analysis windows must complete with
// zero trades and an unchanged balance.
func TestRunShortSeriesNoTrades(t *testing.T) {
	sim := newTestSimulator(t, testConfig())

	result, err := sim.Run(context.Background(), flatCandles(30), flatCandles(30), flatCandles(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metrics.TotalTrades != 0 {
		t.Errorf("expected 0 trades, got %d", result.Metrics.TotalTrades)
	}
	if result.Metrics.FinalBalance != 10000 {
		t.Errorf("expected unchanged balance, got %f", result.Metrics.FinalBalance)
	}
	if result.Metrics.TotalPnL != 0 {
		t.Errorf("expected zero P&L, got %f", result.Metrics.TotalPnL)
	}
}

func TestRunCancellation(t *testing.T) {
	sim := newTestSimulator(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sim.Run(ctx, flatCandles(30), flatCandles(30), flatCandles(200))
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if result == nil {
		t.Fatal("expected a partial result alongside cancellation")
	}
	if result.Metrics.FinalBalance != 10000 {
		t.Errorf("partial result should carry the running balance, got %f", result.Metrics.FinalBalance)
	}
}

func TestProgressReporting(t *testing.T) {
	cfg := testConfig()
	cfg.ProgressBatch = 50
	sim := newTestSimulator(t, cfg)

	var calls int
	sim.SetProgress(func(phase string, pct float64, kpis RunningKPIs) {
		calls++
		if pct < 0 || pct > 1 {
			t.Errorf("progress fraction out of range: %f", pct)
		}
	})

	if _, err := sim.Run(context.Background(), flatCandles(30), flatCandles(30), flatCandles(120)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 120 candles at batch 50 reports at 0, 50, 100 plus the final call
	if calls != 4 {
		t.Errorf("expected 4 progress calls, got %d", calls)
	}
}

func openLong(sim *Simulator) {
	if sim.balance == 0 {
		sim.balance = sim.cfg.InitialBalance
	}
	sim.position = &SimulatedPosition{
		Direction:  strategy.Long,
		EntryPrice: 2000,
		StopLoss:   1995,
		TakeProfit: 2010,
		LotSize:    0.2,
		EntryTime:  simBase,
		Strategy:   "TEST",
	}
}

func bothLevelsCandle(bearish bool) market.Candle {
	c := market.Candle{
		Time: simBase.Add(time.Hour),
		High: 2015, Low: 1990,
	}
	if bearish {
		c.Open, c.Close = 2012, 1992
	} else {
		c.Open, c.Close = 1992, 2012
	}
	return c
}

// The default policy resolves a candle touching both levels to the stop.
func TestExitStopFirstPolicy(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	openLong(sim)

	if !sim.checkExit(bothLevelsCandle(false)) {
		t.Fatal("expected an exit")
	}
	if len(sim.trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(sim.trades))
	}
	trade := sim.trades[0]
	if trade.ExitReason != ExitStopLoss {
		t.Errorf("expected SL exit, got %s", trade.ExitReason)
	}
	if trade.ExitPrice != 1995 {
		t.Errorf("expected exit at the stop 1995, got %f", trade.ExitPrice)
	}
	// 50 pips against on 0.2 lots at 10/pip/lot
	if trade.PnL != -100 {
		t.Errorf("expected -100 P&L, got %f", trade.PnL)
	}
	if trade.RMultiple != -1 {
		t.Errorf("expected -1R, got %f", trade.RMultiple)
	}
	if sim.balance != 9900 {
		t.Errorf("expected balance 9900, got %f", sim.balance)
	}
	if sim.position != nil {
		t.Error("position should be cleared after the exit")
	}
}

func TestExitTargetFirstPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.StopTargetPolicy = config.TargetFirst
	sim := newTestSimulator(t, cfg)
	openLong(sim)

	sim.checkExit(bothLevelsCandle(false))

	if len(sim.trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(sim.trades))
	}
	trade := sim.trades[0]
	if trade.ExitReason != ExitTakeProfit {
		t.Errorf("expected TP exit, got %s", trade.ExitReason)
	}
	if trade.RMultiple != 2 {
		t.Errorf("expected +2R, got %f", trade.RMultiple)
	}
	if sim.balance != 10200 {
		t.Errorf("expected balance 10200, got %f", sim.balance)
	}
}

// The directional policy reads the candle body: a bearish candle against a
// long position means the stop printed first.
func TestExitDirectionalPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.StopTargetPolicy = config.Directional
	sim := newTestSimulator(t, cfg)

	openLong(sim)
	sim.checkExit(bothLevelsCandle(true))
	if sim.trades[0].ExitReason != ExitStopLoss {
		t.Errorf("bearish candle should fill the long stop first, got %s", sim.trades[0].ExitReason)
	}

	openLong(sim)
	sim.checkExit(bothLevelsCandle(false))
	if sim.trades[1].ExitReason != ExitTakeProfit {
		t.Errorf("bullish candle should fill the long target first, got %s", sim.trades[1].ExitReason)
	}
}

func TestExitOnlyOneLevelTouched(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	openLong(sim)

	inside := market.Candle{Time: simBase.Add(time.Hour), Open: 2000, High: 2004, Low: 1998, Close: 2002}
	if sim.checkExit(inside) {
		t.Error("a candle inside both levels should not exit")
	}
	if sim.position == nil {
		t.Error("position should stay open")
	}

	targetOnly := market.Candle{Time: simBase.Add(2 * time.Hour), Open: 2004, High: 2011, Low: 2003, Close: 2010}
	if !sim.checkExit(targetOnly) {
		t.Fatal("expected a target exit")
	}
	if sim.trades[0].ExitReason != ExitTakeProfit {
		t.Errorf("expected TP exit, got %s", sim.trades[0].ExitReason)
	}
}

// Equity is sampled at most once per simulated hour.
func TestEquitySamplingCadence(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	sim.balance = 10000
	sim.peakEquity = 10000

	sim.sampleEquity(simBase, 2000)
	sim.sampleEquity(simBase.Add(15*time.Minute), 2000)
	sim.sampleEquity(simBase.Add(30*time.Minute), 2000)
	if len(sim.equityCurve) != 1 {
		t.Errorf("expected 1 sample within the hour, got %d", len(sim.equityCurve))
	}

	sim.sampleEquity(simBase.Add(time.Hour), 2000)
	if len(sim.equityCurve) != 2 {
		t.Errorf("expected a second sample after an hour, got %d", len(sim.equityCurve))
	}
	if len(sim.drawdownCurve) != len(sim.equityCurve) {
		t.Error("drawdown curve should track the equity curve")
	}
}

func TestFinalBalanceMatchesTradeSum(t *testing.T) {
	sim := newTestSimulator(t, testConfig())
	openLong(sim)
	sim.closePosition(2010, simBase.Add(time.Hour), ExitTakeProfit)

	openLong(sim)
	sim.closePosition(1995, simBase.Add(2*time.Hour), ExitStopLoss)

	var sum float64
	for _, tr := range sim.trades {
		sum += tr.PnL
	}
	if got := sim.cfg.InitialBalance + sum; got != sim.balance {
		t.Errorf("balance %f does not equal initial plus trade P&L %f", sim.balance, got)
	}
}
