// Package risk implements position sizing against instrument metadata and
// the daily drawdown lockout used by the backtest simulator.
package risk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"smc-backtester/internal/market"
)

// SizingResult is the outcome of one position-sizing computation
type SizingResult struct {
	LotSize         float64
	RiskAmount      float64 // Intended account-currency risk
	RealizedRisk    float64 // Risk implied by the final lot size
	StopPips        float64
	WasClampedToMin bool // Realized risk may exceed intended risk only here
}

// CalculatePositionSize converts a risk percentage and stop distance into a
// lot size quantized to the instrument's volume step. The lot size is
// floored to the step so realized risk never exceeds the intended amount,
// except when clamping to the instrument minimum forces it.
func CalculatePositionSize(balance, riskPercent, entry, stop float64, spec market.SymbolSpec) (SizingResult, error) {
	if balance <= 0 {
		return SizingResult{}, fmt.Errorf("balance must be positive, got %.2f", balance)
	}
	if riskPercent <= 0 {
		return SizingResult{}, fmt.Errorf("risk percent must be positive, got %.2f", riskPercent)
	}
	stopDistance := math.Abs(entry - stop)
	if stopDistance == 0 {
		return SizingResult{}, fmt.Errorf("zero stop distance for entry %.5f", entry)
	}
	if spec.PipSize <= 0 || spec.VolumeStep <= 0 {
		return SizingResult{}, fmt.Errorf("invalid symbol spec for %s", spec.Symbol)
	}

	riskAmount := balance * riskPercent / 100
	stopPips := stopDistance / spec.PipSize
	riskPerLot := stopPips * spec.PipValuePerLot()
	if riskPerLot <= 0 {
		return SizingResult{}, fmt.Errorf("non-positive per-lot risk for %s", spec.Symbol)
	}

	rawLots := riskAmount / riskPerLot

	// Quantize down to the volume step with decimal arithmetic so float
	// error cannot round a lot size up past the risk budget.
	step := decimal.NewFromFloat(spec.VolumeStep)
	lots := decimal.NewFromFloat(rawLots).Div(step).Floor().Mul(step)

	result := SizingResult{
		RiskAmount: riskAmount,
		StopPips:   stopPips,
	}

	lotSize := lots.InexactFloat64()
	if lotSize < spec.MinVolume {
		lotSize = spec.MinVolume
		result.WasClampedToMin = true
	}
	if spec.MaxVolume > 0 && lotSize > spec.MaxVolume {
		lotSize = spec.MaxVolume
	}

	result.LotSize = lotSize
	result.RealizedRisk = lotSize * riskPerLot
	return result, nil
}

// PnL computes the account-currency profit for a closed position
func PnL(direction string, entry, exit, lotSize float64, spec market.SymbolSpec) float64 {
	move := exit - entry
	if direction == "SHORT" {
		move = entry - exit
	}
	pips := move / spec.PipSize
	return pips * spec.PipValuePerLot() * lotSize
}
