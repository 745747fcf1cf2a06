package mtf

// PriceZone is the premium/discount classification of a price within the
// dealing range.
type PriceZone string

const (
	ZonePremium     PriceZone = "PREMIUM"
	ZoneDiscount    PriceZone = "DISCOUNT"
	ZoneEquilibrium PriceZone = "EQUILIBRIUM"
)

// PremiumDiscount is the Fibonacci split of a dealing range. Fib levels are
// measured from the low: Fib618/Fib786 bound the optimal trade entry band.
type PremiumDiscount struct {
	High        float64
	Low         float64
	Equilibrium float64
	Fib618      float64
	Fib786      float64
}

// CalculatePremiumDiscount splits the range at 50% equilibrium with the
// 61.8-78.6 OTE band.
func CalculatePremiumDiscount(high, low float64) PremiumDiscount {
	r := high - low
	return PremiumDiscount{
		High:        high,
		Low:         low,
		Equilibrium: low + r*0.5,
		Fib618:      low + r*0.618,
		Fib786:      low + r*0.786,
	}
}

// ZoneAt classifies a price against equilibrium. A price within 0.1% of the
// range around equilibrium counts as equilibrium.
func (pd PremiumDiscount) ZoneAt(price float64) PriceZone {
	band := (pd.High - pd.Low) * 0.001
	switch {
	case price > pd.Equilibrium+band:
		return ZonePremium
	case price < pd.Equilibrium-band:
		return ZoneDiscount
	default:
		return ZoneEquilibrium
	}
}

// InOTE reports whether the price sits inside the 61.8-78.6% retracement
// band. For longs the band is measured down from the high, for shorts up
// from the low.
func (pd PremiumDiscount) InOTE(price float64, long bool) bool {
	r := pd.High - pd.Low
	if r <= 0 {
		return false
	}
	if long {
		upper := pd.High - r*0.618
		lower := pd.High - r*0.786
		return price >= lower && price <= upper
	}
	return price >= pd.Fib618 && price <= pd.Fib786
}
