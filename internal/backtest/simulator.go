package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"smc-backtester/config"
	"smc-backtester/internal/market"
	"smc-backtester/internal/mtf"
	"smc-backtester/internal/risk"
	"smc-backtester/internal/smc"
	"smc-backtester/internal/strategy"
)

// Analysis window sizes in candles per timeframe, and the minimum history
// required before any entry is considered.
const (
	htfWindow = 100
	mtfWindow = 200
	ltfWindow = 100

	minHTFCandles = 50
	minMTFCandles = 100
	minLTFCandles = 50
)

// Simulator replays LTF candles against the strategy engine, maintaining at
// most one open position. Trading decisions use only candles at or before
// the current simulated time.
type Simulator struct {
	cfg      config.BacktestConfig
	spec     market.SymbolSpec
	analyzer *mtf.Analyzer
	engine   *strategy.Engine
	logger   zerolog.Logger
	progress ProgressFunc

	// Per-run state, reset at the top of Run
	balance          float64
	position         *SimulatedPosition
	trades           []Trade
	equityCurve      []EquityPoint
	drawdownCurve    []DrawdownPoint
	peakEquity       float64
	maxDrawdown      float64
	maxDrawdownPct   float64
	lastEquitySample time.Time
	tracker          *risk.DailyDrawdownTracker
}

// NewSimulator wires a simulator from a validated config. The engine is
// built from the configured strategy list (all strategies when empty) in
// registration order.
func NewSimulator(cfg config.BacktestConfig, spec market.SymbolSpec, logger zerolog.Logger) (*Simulator, error) {
	names := cfg.Strategies
	if len(names) == 0 {
		names = strategy.AllStrategyNames
	}
	strategies, err := strategy.Build(names)
	if err != nil {
		return nil, fmt.Errorf("building strategies: %w", err)
	}

	policy := strategy.BestConfidence
	if cfg.SelectionPolicy == string(strategy.FirstMatch) {
		policy = strategy.FirstMatch
	}
	validator := strategy.NewValidator(cfg.MinRiskReward, cfg.MinConfidence)
	engine := strategy.NewEngine(validator, policy, logger)
	for _, s := range strategies {
		engine.Register(s)
	}

	return &Simulator{
		cfg:      cfg,
		spec:     spec,
		analyzer: mtf.NewAnalyzer(logger),
		engine:   engine,
		logger:   logger.With().Str("component", "backtest").Logger(),
	}, nil
}

// SetProgress installs an optional progress observer
func (s *Simulator) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// Run replays the LTF series. The HTF and MTF series supply higher
// timeframe context and are sliced by time so no future candle leaks into
// a decision. Cancellation is honored at candle boundaries; the partial
// result is returned alongside a wrapped ErrCancelled.
func (s *Simulator) Run(ctx context.Context, htf, mtfCandles, ltf []market.Candle) (*Result, error) {
	s.balance = s.cfg.InitialBalance
	s.position = nil
	s.trades = nil
	s.equityCurve = nil
	s.drawdownCurve = nil
	s.peakEquity = s.cfg.InitialBalance
	s.maxDrawdown = 0
	s.maxDrawdownPct = 0
	s.lastEquitySample = time.Time{}
	s.tracker = risk.NewDailyDrawdownTracker(s.cfg.MaxDailyDrawdownPercent)

	batch := s.cfg.ProgressBatch
	if batch <= 0 {
		batch = 500
	}

	s.logger.Info().
		Str("symbol", s.cfg.Symbol).
		Int("ltf_candles", len(ltf)).
		Float64("balance", s.balance).
		Msg("starting backtest")

	for i, candle := range ltf {
		if err := ctx.Err(); err != nil {
			s.logger.Warn().Int("candle", i).Msg("run cancelled")
			return s.buildResult(), fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		if i%batch == 0 {
			s.report("replay", float64(i)/float64(len(ltf)))
		}

		now := candle.Time
		s.sampleEquity(now, candle.Close)

		if s.position != nil {
			// No same-candle re-entry after an exit
			s.checkExit(candle)
			continue
		}

		s.tracker.Observe(now, s.balance)
		if s.tracker.Locked() {
			continue
		}
		if !s.entryTimeAllowed(now) {
			continue
		}

		htfSlice := market.Tail(market.UpTo(htf, now), htfWindow)
		mtfSlice := market.Tail(market.UpTo(mtfCandles, now), mtfWindow)
		ltfSlice := ltf[maxInt(0, i+1-ltfWindow) : i+1]
		if len(htfSlice) < minHTFCandles || len(mtfSlice) < minMTFCandles || len(ltfSlice) < minLTFCandles {
			continue
		}

		analysis := s.analyzer.Analyze(htfSlice, mtfSlice, ltfSlice)
		if !s.analysisAllowed(analysis) {
			continue
		}

		sig := s.engine.Evaluate(&strategy.Context{
			Symbol:       s.cfg.Symbol,
			HTF:          htfSlice,
			MTF:          mtfSlice,
			LTF:          ltfSlice,
			Analysis:     analysis,
			CurrentPrice: candle.Close,
			Now:          now,
		})
		if sig == nil {
			continue
		}
		if !s.signalAllowed(sig, analysis) {
			continue
		}
		s.shapeExits(sig)
		s.applyKillZoneBoost(sig, now)
		s.openPosition(sig, now)
	}

	if s.position != nil && len(ltf) > 0 {
		last := ltf[len(ltf)-1]
		s.closePosition(last.Close, last.Time, ExitSignal)
	}

	s.report("replay", 1)
	result := s.buildResult()
	s.logger.Info().
		Int("trades", result.Metrics.TotalTrades).
		Float64("final_balance", result.Metrics.FinalBalance).
		Float64("win_rate", result.Metrics.WinRate).
		Msg("backtest complete")
	return result, nil
}

// entryTimeAllowed applies the date range, the weekend/off-hours guard and
// the optional kill zone filter to a prospective entry time.
func (s *Simulator) entryTimeAllowed(now time.Time) bool {
	if !s.cfg.StartDate.IsZero() && now.Before(s.cfg.StartDate) {
		return false
	}
	if !s.cfg.EndDate.IsZero() && now.After(s.cfg.EndDate) {
		return false
	}
	if smc.ShouldAvoidTrading(now) {
		return false
	}
	if !s.cfg.UseKillZones {
		return true
	}
	zone, _ := smc.ClassifyKillZone(now)
	if zone == smc.KillZoneNone {
		return false
	}
	if len(s.cfg.KillZones) == 0 {
		return true
	}
	for _, allowed := range s.cfg.KillZones {
		if string(zone) == allowed {
			return true
		}
	}
	return false
}

// analysisAllowed applies the pre-signal filters that only need the
// multi-timeframe read.
func (s *Simulator) analysisAllowed(a *mtf.Analysis) bool {
	if s.cfg.RequireLiquiditySweep {
		if a.RecentSweep == nil || !a.RecentSweep.IsReversal {
			return false
		}
	}
	if s.cfg.RequirePremiumDiscount && a.PremiumDiscount == nil {
		return false
	}
	return true
}

// signalAllowed applies the post-signal filters: OTE placement, minimum
// order block score backing the direction, and the stop width cap.
func (s *Simulator) signalAllowed(sig *strategy.Signal, a *mtf.Analysis) bool {
	if s.cfg.RequireOTE {
		if a.PremiumDiscount == nil || !a.PremiumDiscount.InOTE(sig.EntryPrice, sig.Direction == strategy.Long) {
			return false
		}
	}
	if s.cfg.MinOBScore > 0 && !s.hasScoredBlock(sig.Direction, a) {
		return false
	}
	if s.cfg.MaxSLPips > 0 && s.spec.PipSize > 0 {
		if sig.Risk()/s.spec.PipSize > s.cfg.MaxSLPips {
			return false
		}
	}
	return true
}

// hasScoredBlock reports whether a valid MTF order block of the signal's
// polarity meets the configured score floor.
func (s *Simulator) hasScoredBlock(dir strategy.Direction, a *mtf.Analysis) bool {
	want := smc.BullishOB
	if dir == strategy.Short {
		want = smc.BearishOB
	}
	for _, ob := range a.MTF.OrderBlocks {
		if ob.Type == want && ob.IsValid && ob.Score >= s.cfg.MinOBScore {
			return true
		}
	}
	return false
}

// shapeExits overrides the take profit to a fixed R multiple when the
// config asks for one. The stop is never moved.
func (s *Simulator) shapeExits(sig *strategy.Signal) {
	if s.cfg.RiskReward <= 0 {
		return
	}
	r := sig.Risk()
	if r <= 0 {
		return
	}
	if sig.Direction == strategy.Long {
		sig.TakeProfit = sig.EntryPrice + r*s.cfg.RiskReward
	} else {
		sig.TakeProfit = sig.EntryPrice - r*s.cfg.RiskReward
	}
}

// applyKillZoneBoost raises confidence by the active kill zone's boost,
// capped at 1.
func (s *Simulator) applyKillZoneBoost(sig *strategy.Signal, now time.Time) {
	_, boost := smc.ClassifyKillZone(now)
	if boost <= 0 {
		return
	}
	sig.Confidence = math.Min(1, sig.Confidence+boost)
}

func (s *Simulator) openPosition(sig *strategy.Signal, now time.Time) {
	sizing, err := risk.CalculatePositionSize(s.balance, s.cfg.RiskPercent, sig.EntryPrice, sig.StopLoss, s.spec)
	if err != nil {
		s.logger.Debug().Err(err).Str("strategy", sig.Strategy).Msg("sizing rejected signal")
		return
	}
	s.position = &SimulatedPosition{
		Direction:  sig.Direction,
		EntryPrice: sig.EntryPrice,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		LotSize:    sizing.LotSize,
		EntryTime:  now,
		Strategy:   sig.Strategy,
		Reason:     sig.Reason,
	}
	s.logger.Debug().
		Str("strategy", sig.Strategy).
		Str("direction", string(sig.Direction)).
		Float64("entry", sig.EntryPrice).
		Float64("stop", sig.StopLoss).
		Float64("target", sig.TakeProfit).
		Float64("lots", sizing.LotSize).
		Msg("opened position")
}

// checkExit closes the open position if the candle's range touches the
// stop or the target. When both levels fall inside one candle the
// configured stop/target policy decides which fills.
func (s *Simulator) checkExit(candle market.Candle) bool {
	pos := s.position
	var hitStop, hitTarget bool
	if pos.Direction == strategy.Long {
		hitStop = candle.Low <= pos.StopLoss
		hitTarget = candle.High >= pos.TakeProfit
	} else {
		hitStop = candle.High >= pos.StopLoss
		hitTarget = candle.Low <= pos.TakeProfit
	}

	switch {
	case hitStop && hitTarget:
		if s.stopFillsFirst(pos.Direction, candle) {
			s.closePosition(pos.StopLoss, candle.Time, ExitStopLoss)
		} else {
			s.closePosition(pos.TakeProfit, candle.Time, ExitTakeProfit)
		}
	case hitStop:
		s.closePosition(pos.StopLoss, candle.Time, ExitStopLoss)
	case hitTarget:
		s.closePosition(pos.TakeProfit, candle.Time, ExitTakeProfit)
	default:
		return false
	}
	return true
}

// stopFillsFirst resolves the ambiguous candle where both levels were
// touched. STOP_FIRST is the conservative default; DIRECTIONAL reads the
// candle body to guess which extreme printed first.
func (s *Simulator) stopFillsFirst(dir strategy.Direction, candle market.Candle) bool {
	switch s.cfg.StopTargetPolicy {
	case config.TargetFirst:
		return false
	case config.Directional:
		if dir == strategy.Long {
			return candle.IsBearish()
		}
		return candle.IsBullish()
	default:
		return true
	}
}

func (s *Simulator) closePosition(exitPrice float64, exitTime time.Time, reason ExitReason) {
	pos := s.position
	pnl := risk.PnL(string(pos.Direction), pos.EntryPrice, exitPrice, pos.LotSize, s.spec)
	s.balance += pnl

	riskDist := math.Abs(pos.EntryPrice - pos.StopLoss)
	move := exitPrice - pos.EntryPrice
	if pos.Direction == strategy.Short {
		move = pos.EntryPrice - exitPrice
	}
	rMultiple := 0.0
	if riskDist > 0 {
		rMultiple = move / riskDist
	}

	s.trades = append(s.trades, Trade{
		ID:         uuid.NewString(),
		Strategy:   pos.Strategy,
		Direction:  pos.Direction,
		EntryTime:  pos.EntryTime,
		ExitTime:   exitTime,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		StopLoss:   pos.StopLoss,
		TakeProfit: pos.TakeProfit,
		LotSize:    pos.LotSize,
		PnL:        pnl,
		RMultiple:  rMultiple,
		ExitReason: reason,
		Reason:     pos.Reason,
	})
	s.position = nil

	// A trade close is always worth an equity sample, cadence aside.
	s.recordEquity(exitTime, s.balance)
	s.lastEquitySample = exitTime

	s.logger.Debug().
		Str("reason", string(reason)).
		Float64("pnl", pnl).
		Float64("balance", s.balance).
		Msg("closed position")
}

// sampleEquity records equity and drawdown, at most once per simulated
// hour. Equity marks the open position to the current close.
func (s *Simulator) sampleEquity(now time.Time, price float64) {
	equity := s.balance
	if s.position != nil {
		equity += risk.PnL(string(s.position.Direction), s.position.EntryPrice, price, s.position.LotSize, s.spec)
	}
	if !s.lastEquitySample.IsZero() && now.Sub(s.lastEquitySample) < time.Hour {
		s.trackDrawdown(equity)
		return
	}
	s.lastEquitySample = now
	s.recordEquity(now, equity)
}

// recordEquity appends one equity and one drawdown point unconditionally
func (s *Simulator) recordEquity(now time.Time, equity float64) {
	ddPct := s.trackDrawdown(equity)
	s.equityCurve = append(s.equityCurve, EquityPoint{Time: now, Equity: equity})
	s.drawdownCurve = append(s.drawdownCurve, DrawdownPoint{Time: now, Drawdown: ddPct})
}

// trackDrawdown updates the running peak and drawdown maxima and returns
// the current drawdown percent.
func (s *Simulator) trackDrawdown(equity float64) float64 {
	if equity > s.peakEquity {
		s.peakEquity = equity
	}
	if dd := s.peakEquity - equity; dd > s.maxDrawdown {
		s.maxDrawdown = dd
	}
	ddPct := 0.0
	if s.peakEquity > 0 {
		ddPct = (s.peakEquity - equity) / s.peakEquity * 100
	}
	if ddPct > s.maxDrawdownPct {
		s.maxDrawdownPct = ddPct
	}
	return ddPct
}

func (s *Simulator) report(phase string, pct float64) {
	if s.progress == nil {
		return
	}
	winRate := 0.0
	if len(s.trades) > 0 {
		wins := 0
		for _, t := range s.trades {
			if t.PnL > 0 {
				wins++
			}
		}
		winRate = float64(wins) / float64(len(s.trades)) * 100
	}
	s.progress(phase, pct, RunningKPIs{
		Trades:  len(s.trades),
		Balance: s.balance,
		WinRate: winRate,
	})
}

func (s *Simulator) buildResult() *Result {
	return &Result{
		RunID:         uuid.NewString(),
		Config:        s.cfg,
		Metrics:       computeMetrics(s.trades, s.cfg.InitialBalance, s.balance, s.maxDrawdown, s.maxDrawdownPct),
		Trades:        s.trades,
		EquityCurve:   s.equityCurve,
		DrawdownCurve: s.drawdownCurve,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
