// Package strategy holds the signal contract, the strategy registry and the
// eleven SMC pattern strategies that propose directional trade signals.
package strategy

import (
	"time"

	"github.com/google/uuid"

	"smc-backtester/internal/market"
	"smc-backtester/internal/mtf"
)

// Direction is the side of a proposed trade
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Signal is a candidate trade proposed by a strategy. Immutable once
// produced.
type Signal struct {
	ID         string
	Strategy   string
	Symbol     string
	Direction  Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Confidence float64 // 0-1
	Reason     string
	Time       time.Time
}

// Risk returns the stop distance
func (s *Signal) Risk() float64 {
	if s.Direction == Long {
		return s.EntryPrice - s.StopLoss
	}
	return s.StopLoss - s.EntryPrice
}

// Reward returns the target distance
func (s *Signal) Reward() float64 {
	if s.Direction == Long {
		return s.TakeProfit - s.EntryPrice
	}
	return s.EntryPrice - s.TakeProfit
}

// RiskReward returns reward over risk, 0 when the risk is zero
func (s *Signal) RiskReward() float64 {
	risk := s.Risk()
	if risk <= 0 {
		return 0
	}
	return s.Reward() / risk
}

// newSignal stamps identity fields onto a strategy's raw proposal
func newSignal(strategyName string, ctx *Context, dir Direction, entry, stop, target, confidence float64, reason string) *Signal {
	return &Signal{
		ID:         uuid.NewString(),
		Strategy:   strategyName,
		Symbol:     ctx.Symbol,
		Direction:  dir,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: target,
		Confidence: confidence,
		Reason:     reason,
		Time:       ctx.Now,
	}
}

// Context carries everything a strategy may consult for one evaluation
type Context struct {
	Symbol       string
	HTF          []market.Candle
	MTF          []market.Candle
	LTF          []market.Candle
	Analysis     *mtf.Analysis
	CurrentPrice float64
	Now          time.Time
}

// Strategy is the shared contract: inspect the context, return a signal or
// nil. Returning (nil, nil) means no setup this candle; an error or panic
// is isolated by the engine and treated the same way.
type Strategy interface {
	Name() string
	Analyze(ctx *Context) (*Signal, error)
}
