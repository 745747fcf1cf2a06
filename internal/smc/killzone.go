package smc

import "time"

// KillZone is a UTC window of elevated institutional activity
type KillZone string

const (
	KillZoneLondonOpen KillZone = "LONDON_OPEN"
	KillZoneNYOpen     KillZone = "NY_OPEN"
	KillZoneOverlap    KillZone = "LONDON_NY_OVERLAP"
	KillZoneAsian      KillZone = "ASIAN"
	KillZoneNone       KillZone = "NONE"
)

// Session is the coarse non-overlapping trading-session partition
type Session string

const (
	SessionAsian    Session = "ASIAN"
	SessionLondon   Session = "LONDON"
	SessionOverlap  Session = "OVERLAP"
	SessionNewYork  Session = "NEW_YORK"
	SessionOffHours Session = "OFF_HOURS"
)

// killZoneWindow is one row of the kill-zone table. Rows are checked in
// order; the overlap outranks the sessions it spans.
type killZoneWindow struct {
	zone      KillZone
	startHour int // Inclusive, UTC
	endHour   int // Exclusive, UTC
	boost     float64
}

var killZoneWindows = []killZoneWindow{
	{KillZoneOverlap, 12, 16, 0.20},
	{KillZoneLondonOpen, 7, 10, 0.15},
	{KillZoneNYOpen, 12, 15, 0.15},
	{KillZoneAsian, 0, 7, 0.05},
}

// ClassifyKillZone returns the active kill zone and its confidence boost
// for a timestamp. Outside every window it returns KillZoneNone and 0.
func ClassifyKillZone(t time.Time) (KillZone, float64) {
	hour := t.UTC().Hour()
	for _, w := range killZoneWindows {
		if hour >= w.startHour && hour < w.endHour {
			return w.zone, w.boost
		}
	}
	return KillZoneNone, 0
}

// ClassifySession maps a timestamp onto the coarse session partition
func ClassifySession(t time.Time) Session {
	hour := t.UTC().Hour()
	switch {
	case hour < 7:
		return SessionAsian
	case hour < 12:
		return SessionLondon
	case hour < 16:
		return SessionOverlap
	case hour < 21:
		return SessionNewYork
	default:
		return SessionOffHours
	}
}

// ShouldAvoidTrading reports whether the timestamp falls in a window where
// no new entries should be taken: weekends and off-hours.
func ShouldAvoidTrading(t time.Time) bool {
	u := t.UTC()
	if u.Weekday() == time.Saturday || u.Weekday() == time.Sunday {
		return true
	}
	return ClassifySession(u) == SessionOffHours
}
