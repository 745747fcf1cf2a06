package strategy

import (
	"fmt"

	"github.com/rs/zerolog"
)

// SelectionPolicy picks how concurrent strategy signals are combined
type SelectionPolicy string

const (
	// BestConfidence evaluates every enabled strategy and keeps the single
	// highest-confidence signal; ties go to the earliest registered.
	BestConfidence SelectionPolicy = "BEST_CONFIDENCE"
	// FirstMatch returns the first enabled strategy's signal that validates.
	FirstMatch SelectionPolicy = "FIRST_MATCH"
)

// Engine holds the ordered strategy registry. Registration order is
// significant: it is the selection tie-break.
type Engine struct {
	strategies []Strategy
	validator  *Validator
	policy     SelectionPolicy
	logger     zerolog.Logger
}

// NewEngine creates an engine with the given validator and policy
func NewEngine(validator *Validator, policy SelectionPolicy, logger zerolog.Logger) *Engine {
	if policy == "" {
		policy = BestConfidence
	}
	return &Engine{
		validator: validator,
		policy:    policy,
		logger:    logger.With().Str("component", "strategy-engine").Logger(),
	}
}

// Register appends a strategy to the evaluation order
func (e *Engine) Register(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// Strategies returns the registered strategies in evaluation order
func (e *Engine) Strategies() []Strategy {
	return e.strategies
}

// Candidate pairs a strategy identifier with its proposed signal
type Candidate struct {
	Name   string
	Signal *Signal
}

// Evaluate runs every registered strategy against the context and returns
// the selected signal, or nil when nothing fires. A strategy error or
// panic is logged and treated as "no signal from that strategy"; it never
// aborts the sibling evaluations.
func (e *Engine) Evaluate(ctx *Context) *Signal {
	var candidates []Candidate
	for _, s := range e.strategies {
		sig := e.analyzeIsolated(s, ctx)
		if sig == nil || !e.validator.Validate(sig) {
			continue
		}
		if e.policy == FirstMatch {
			return sig
		}
		candidates = append(candidates, Candidate{Name: s.Name(), Signal: sig})
	}
	return Combine(candidates)
}

// analyzeIsolated runs one strategy under a recover barrier
func (e *Engine) analyzeIsolated(s Strategy, ctx *Context) (sig *Signal) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("strategy", s.Name()).
				Str("panic", fmt.Sprint(r)).
				Msg("strategy panicked, treating as no signal")
			sig = nil
		}
	}()

	sig, err := s.Analyze(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Str("strategy", s.Name()).Msg("strategy evaluation failed")
		return nil
	}
	return sig
}

// Combine picks the highest-confidence candidate. On equal confidence the
// earliest candidate wins, so the caller's evaluation order is preserved.
func Combine(candidates []Candidate) *Signal {
	var best *Signal
	for _, c := range candidates {
		if c.Signal == nil {
			continue
		}
		if best == nil || c.Signal.Confidence > best.Confidence {
			best = c.Signal
		}
	}
	return best
}
