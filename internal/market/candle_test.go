package market

import (
	"testing"
	"time"
)

func TestCandleShape(t *testing.T) {
	c := Candle{Open: 100, High: 110, Low: 95, Close: 105}

	if !c.IsBullish() || c.IsBearish() {
		t.Error("close above open should be bullish")
	}
	if c.Body() != 5 {
		t.Errorf("expected body 5, got %f", c.Body())
	}
	if c.Range() != 15 {
		t.Errorf("expected range 15, got %f", c.Range())
	}
	if c.UpperWick() != 5 {
		t.Errorf("expected upper wick 5, got %f", c.UpperWick())
	}
	if c.LowerWick() != 5 {
		t.Errorf("expected lower wick 5, got %f", c.LowerWick())
	}
	if got := c.BodyRatio(); got != 5.0/15.0 {
		t.Errorf("expected body ratio 1/3, got %f", got)
	}

	flat := Candle{Open: 100, High: 100, Low: 100, Close: 100}
	if flat.BodyRatio() != 0 {
		t.Error("a zero-range candle has body ratio 0")
	}
}

func TestUpToAndTail(t *testing.T) {
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	candles := make([]Candle, 10)
	for i := range candles {
		candles[i] = Candle{Time: base.Add(time.Duration(i) * time.Hour), Close: float64(i)}
	}

	upTo := UpTo(candles, base.Add(4*time.Hour))
	if len(upTo) != 5 {
		t.Fatalf("expected 5 candles up to hour 4 inclusive, got %d", len(upTo))
	}
	if upTo[len(upTo)-1].Close != 4 {
		t.Errorf("expected last close 4, got %f", upTo[len(upTo)-1].Close)
	}

	tail := Tail(candles, 3)
	if len(tail) != 3 || tail[0].Close != 7 {
		t.Errorf("expected the last 3 candles, got %+v", tail)
	}
	if got := Tail(candles, 100); len(got) != 10 {
		t.Errorf("oversized tail should return everything, got %d", len(got))
	}
}

func TestSpecRegistry(t *testing.T) {
	registry := NewSpecRegistry()

	spec, err := registry.Spec("XAUUSD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.PipSize != 0.1 {
		t.Errorf("expected gold pip size 0.1, got %f", spec.PipSize)
	}
	if got := spec.PipValuePerLot(); got != 10 {
		t.Errorf("expected 10 per pip per lot, got %f", got)
	}

	if _, err := registry.Spec("DOGEUSD"); err == nil {
		t.Error("expected an error for an unknown symbol")
	}

	registry.RegisterSpec(SymbolSpec{Symbol: "DOGEUSD", PipSize: 0.0001, ContractSize: 10000, VolumeStep: 1, MinVolume: 1})
	if _, err := registry.Spec("DOGEUSD"); err != nil {
		t.Errorf("registered symbol should resolve: %v", err)
	}
}
