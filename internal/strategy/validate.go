package strategy

// Validator applies the acceptance gate every candidate signal must pass
type Validator struct {
	MinRiskReward float64
	MinConfidence float64
}

// NewValidator creates a validator. Non-positive bounds fall back to the
// defaults of 1.5 R:R and 0.6 confidence.
func NewValidator(minRR, minConfidence float64) *Validator {
	if minRR <= 0 {
		minRR = 1.5
	}
	if minConfidence <= 0 {
		minConfidence = 0.6
	}
	return &Validator{MinRiskReward: minRR, MinConfidence: minConfidence}
}

// Validate reports whether a signal is acceptable: stop and target on the
// correct side of entry for its direction, minimum R:R, minimum
// confidence. A zero-risk signal has R:R 0 and always fails. Rejected
// signals are discarded silently, never surfaced as errors.
func (v *Validator) Validate(s *Signal) bool {
	if s == nil {
		return false
	}
	switch s.Direction {
	case Long:
		if s.StopLoss >= s.EntryPrice || s.TakeProfit <= s.EntryPrice {
			return false
		}
	case Short:
		if s.StopLoss <= s.EntryPrice || s.TakeProfit >= s.EntryPrice {
			return false
		}
	default:
		return false
	}
	if s.RiskReward() < v.MinRiskReward {
		return false
	}
	return s.Confidence >= v.MinConfidence
}
