package market

import "fmt"

// SymbolSpec holds the instrument metadata needed for position sizing.
// The caller may override any built-in spec via RegisterSpec.
type SymbolSpec struct {
	Symbol       string  `json:"symbol"`
	PipSize      float64 `json:"pip_size"`      // Price distance of one pip
	ContractSize float64 `json:"contract_size"` // Units per 1.0 lot
	VolumeStep   float64 `json:"volume_step"`   // Lot size increment
	MinVolume    float64 `json:"min_volume"`    // Smallest tradable lot
	MaxVolume    float64 `json:"max_volume"`    // Largest tradable lot
	TickSize     float64 `json:"tick_size"`     // Smallest price increment
	TickValue    float64 `json:"tick_value"`    // Value of one tick for 1.0 lot
}

// PipValuePerLot returns the account-currency value of a one-pip move for a
// 1.0 lot position.
func (s SymbolSpec) PipValuePerLot() float64 {
	if s.TickSize == 0 {
		return s.PipSize * s.ContractSize
	}
	return s.PipSize / s.TickSize * s.TickValue
}

// SpecRegistry maps symbols to their instrument metadata. Each registry is
// caller-owned; there is no shared process-wide registry.
type SpecRegistry struct {
	specs map[string]SymbolSpec
}

// NewSpecRegistry creates a registry preloaded with defaults for a small
// fixed symbol set.
func NewSpecRegistry() *SpecRegistry {
	r := &SpecRegistry{specs: make(map[string]SymbolSpec)}
	for _, s := range defaultSpecs {
		r.specs[s.Symbol] = s
	}
	return r
}

// RegisterSpec adds or overrides a symbol spec
func (r *SpecRegistry) RegisterSpec(spec SymbolSpec) {
	r.specs[spec.Symbol] = spec
}

// Spec returns the metadata for a symbol
func (r *SpecRegistry) Spec(symbol string) (SymbolSpec, error) {
	s, ok := r.specs[symbol]
	if !ok {
		return SymbolSpec{}, fmt.Errorf("no symbol spec registered for %s", symbol)
	}
	return s, nil
}

var defaultSpecs = []SymbolSpec{
	{Symbol: "XAUUSD", PipSize: 0.1, ContractSize: 100, VolumeStep: 0.01, MinVolume: 0.01, MaxVolume: 100, TickSize: 0.01, TickValue: 1},
	{Symbol: "EURUSD", PipSize: 0.0001, ContractSize: 100000, VolumeStep: 0.01, MinVolume: 0.01, MaxVolume: 200, TickSize: 0.00001, TickValue: 1},
	{Symbol: "GBPUSD", PipSize: 0.0001, ContractSize: 100000, VolumeStep: 0.01, MinVolume: 0.01, MaxVolume: 200, TickSize: 0.00001, TickValue: 1},
	{Symbol: "USDJPY", PipSize: 0.01, ContractSize: 100000, VolumeStep: 0.01, MinVolume: 0.01, MaxVolume: 200, TickSize: 0.001, TickValue: 0.67},
	{Symbol: "BTCUSD", PipSize: 1, ContractSize: 1, VolumeStep: 0.001, MinVolume: 0.001, MaxVolume: 50, TickSize: 0.1, TickValue: 0.1},
}
