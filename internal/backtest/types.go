// Package backtest replays strategy signals candle-by-candle against
// historical data under the configured risk rules and produces trades,
// equity/drawdown curves and summary metrics.
package backtest

import (
	"errors"
	"time"

	"smc-backtester/config"
	"smc-backtester/internal/strategy"
)

// ErrCancelled is returned (wrapped) when the run context is cancelled.
// The partial result accompanying it is internally consistent: curves and
// trades are appended monotonically.
var ErrCancelled = errors.New("backtest cancelled")

// ExitReason records why a position was closed
type ExitReason string

const (
	ExitTakeProfit ExitReason = "TP"
	ExitStopLoss   ExitReason = "SL"
	ExitSignal     ExitReason = "SIGNAL" // Forced close at series end
)

// Trade is one completed round trip
type Trade struct {
	ID         string
	Strategy   string
	Direction  strategy.Direction
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64
	TakeProfit float64
	LotSize    float64
	PnL        float64
	RMultiple  float64 // PnL in units of the initial stop distance
	ExitReason ExitReason
	Reason     string // The entry reason from the signal
}

// SimulatedPosition is the single open position. At most one instance is
// live at any simulated time.
type SimulatedPosition struct {
	Direction  strategy.Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	LotSize    float64
	EntryTime  time.Time
	Strategy   string
	Reason     string
}

// EquityPoint samples account equity (realized plus mark-to-market)
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// DrawdownPoint samples drawdown from the running equity peak, in percent
type DrawdownPoint struct {
	Time     time.Time
	Drawdown float64
}

// StrategyPerformance attributes trades to the strategy that produced them
type StrategyPerformance struct {
	Trades  int
	Wins    int
	Losses  int
	WinRate float64
	NetPnL  float64
}

// Metrics summarizes one backtest run
type Metrics struct {
	TotalTrades        int
	WinningTrades      int
	LosingTrades       int
	WinRate            float64 // Percent
	ProfitFactor       float64 // +Inf when profitable with no losses
	GrossProfit        float64
	GrossLoss          float64 // Positive magnitude
	MaxDrawdown        float64
	MaxDrawdownPercent float64
	SharpeRatio        float64
	AverageWin         float64
	AverageLoss        float64 // Negative
	AverageRR          float64 // Mean realized R-multiple
	TotalPnL           float64
	TotalPnLPercent    float64
	FinalBalance       float64
	StrategyStats      map[string]*StrategyPerformance
}

// Result is the immutable output of one run
type Result struct {
	RunID         string
	Config        config.BacktestConfig
	Metrics       Metrics
	Trades        []Trade
	EquityCurve   []EquityPoint
	DrawdownCurve []DrawdownPoint
}

// RunningKPIs accompany progress reports during a run
type RunningKPIs struct {
	Trades  int
	Balance float64
	WinRate float64
}

// ProgressFunc observes run progress at batch boundaries. Optional; may be
// nil.
type ProgressFunc func(phase string, pct float64, kpis RunningKPIs)
