package risk

import "time"

// DailyDrawdownTracker enforces the intraday loss lockout. Once drawdown
// from the day-start balance reaches the limit, no new entries are allowed
// until the UTC date changes. One tracker belongs to exactly one backtest
// run.
type DailyDrawdownTracker struct {
	maxPercent   float64
	day          time.Time // UTC midnight of the current day
	startBalance float64
	locked       bool
}

// NewDailyDrawdownTracker creates a tracker. A non-positive limit falls
// back to the default of 6%.
func NewDailyDrawdownTracker(maxPercent float64) *DailyDrawdownTracker {
	if maxPercent <= 0 {
		maxPercent = 6
	}
	return &DailyDrawdownTracker{maxPercent: maxPercent}
}

// Observe updates the tracker with the current simulated time and balance.
// A new UTC date resets the day-start balance and clears any lockout.
func (t *DailyDrawdownTracker) Observe(now time.Time, balance float64) {
	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(t.day) {
		t.day = day
		t.startBalance = balance
		t.locked = false
		return
	}
	if t.locked || t.startBalance <= 0 {
		return
	}
	drawdown := (t.startBalance - balance) / t.startBalance * 100
	if drawdown >= t.maxPercent {
		t.locked = true
	}
}

// Locked reports whether the current day has hit the drawdown limit
func (t *DailyDrawdownTracker) Locked() bool {
	return t.locked
}

// DayStartBalance returns the balance at the start of the current UTC day
func (t *DailyDrawdownTracker) DayStartBalance() float64 {
	return t.startBalance
}
