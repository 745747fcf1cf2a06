package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// stubStrategy returns a canned result so engine behavior can be tested in
// isolation.
type stubStrategy struct {
	name   string
	signal *Signal
	err    error
	panics bool
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Analyze(ctx *Context) (*Signal, error) {
	if s.panics {
		panic("boom")
	}
	return s.signal, s.err
}

func longSignal(strategy string, confidence float64) *Signal {
	return &Signal{
		Strategy:   strategy,
		Direction:  Long,
		EntryPrice: 100,
		StopLoss:   98,
		TakeProfit: 106,
		Confidence: confidence,
		Time:       time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}
}

func newTestEngine(policy SelectionPolicy, strategies ...Strategy) *Engine {
	e := NewEngine(NewValidator(1.5, 0.6), policy, zerolog.Nop())
	for _, s := range strategies {
		e.Register(s)
	}
	return e
}

func TestEvaluatePicksBestConfidence(t *testing.T) {
	e := newTestEngine(BestConfidence,
		&stubStrategy{name: "a", signal: longSignal("a", 0.7)},
		&stubStrategy{name: "b", signal: longSignal("b", 0.9)},
		&stubStrategy{name: "c", signal: longSignal("c", 0.8)},
	)

	sig := e.Evaluate(&Context{})
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Strategy != "b" {
		t.Errorf("expected strategy b, got %s", sig.Strategy)
	}
}

// Equal confidence resolves to the earliest registered strategy.
func TestCombineTieBreak(t *testing.T) {
	sig := Combine([]Candidate{
		{Name: "first", Signal: longSignal("first", 0.8)},
		{Name: "second", Signal: longSignal("second", 0.8)},
	})
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Strategy != "first" {
		t.Errorf("expected the first candidate on a tie, got %s", sig.Strategy)
	}

	if Combine(nil) != nil {
		t.Error("no candidates should combine to nil")
	}
}

func TestEvaluateFirstMatch(t *testing.T) {
	e := newTestEngine(FirstMatch,
		&stubStrategy{name: "a", signal: nil},
		&stubStrategy{name: "b", signal: longSignal("b", 0.7)},
		&stubStrategy{name: "c", signal: longSignal("c", 0.99)},
	)

	sig := e.Evaluate(&Context{})
	if sig == nil || sig.Strategy != "b" {
		t.Fatalf("expected the first firing strategy, got %+v", sig)
	}
}

// A panicking or failing strategy must not take down its siblings.
func TestEvaluateIsolatesFailures(t *testing.T) {
	e := newTestEngine(BestConfidence,
		&stubStrategy{name: "panics", panics: true},
		&stubStrategy{name: "errors", err: errors.New("bad window")},
		&stubStrategy{name: "ok", signal: longSignal("ok", 0.7)},
	)

	sig := e.Evaluate(&Context{})
	if sig == nil {
		t.Fatal("expected the healthy strategy's signal")
	}
	if sig.Strategy != "ok" {
		t.Errorf("expected strategy ok, got %s", sig.Strategy)
	}
}

func TestEvaluateDropsInvalidSignals(t *testing.T) {
	lowConfidence := longSignal("low", 0.5)

	wrongSide := longSignal("side", 0.9)
	wrongSide.StopLoss = 101 // Stop above a long entry

	poorRR := longSignal("rr", 0.9)
	poorRR.TakeProfit = 101 // 0.5 R:R

	e := newTestEngine(BestConfidence,
		&stubStrategy{name: "low", signal: lowConfidence},
		&stubStrategy{name: "side", signal: wrongSide},
		&stubStrategy{name: "rr", signal: poorRR},
	)

	if sig := e.Evaluate(&Context{}); sig != nil {
		t.Errorf("expected every candidate rejected, got %+v", sig)
	}
}

func TestValidatorZeroRisk(t *testing.T) {
	v := NewValidator(1.5, 0.6)

	s := longSignal("zr", 0.9)
	s.StopLoss = s.EntryPrice
	if v.Validate(s) {
		t.Error("a zero-risk signal must fail validation")
	}
	if v.Validate(nil) {
		t.Error("nil must fail validation")
	}
}

func TestRegistryBuildPreservesOrder(t *testing.T) {
	strategies, err := Build(AllStrategyNames)
	if err != nil {
		t.Fatalf("building all strategies: %v", err)
	}
	if len(strategies) != len(AllStrategyNames) {
		t.Fatalf("expected %d strategies, got %d", len(AllStrategyNames), len(strategies))
	}
	for i, s := range strategies {
		if s.Name() != AllStrategyNames[i] {
			t.Errorf("position %d: expected %s, got %s", i, AllStrategyNames[i], s.Name())
		}
	}

	if _, err := Build([]string{"NO_SUCH_STRATEGY"}); err == nil {
		t.Error("expected an error for an unknown strategy name")
	}
}
