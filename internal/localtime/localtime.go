// Package localtime holds the pure wall-clock arithmetic behind the sweep:
// converting an absolute instant into a subscriber's local minutes-of-day and
// date key, and deciding whether the instant falls inside the delivery
// window around a target time. No I/O, no clock — everything takes the
// instant as an argument so it is directly unit-testable.
package localtime

import (
	"fmt"
	"regexp"
	"time"
)

const minutesPerDay = 24 * 60

// HourMinute is a local time-of-day with minute precision.
type HourMinute struct {
	Hour   int
	Minute int
}

// Minutes returns the time-of-day as minutes since local midnight.
func (hm HourMinute) Minutes() int {
	return hm.Hour*60 + hm.Minute
}

// String formats as zero-padded "HH:MM".
func (hm HourMinute) String() string {
	return fmt.Sprintf("%02d:%02d", hm.Hour, hm.Minute)
}

// clockRE accepts "H:MM" or "HH:MM" prefixes; trailing annotations such as
// " (EET)" returned by the timings API are ignored.
var clockRE = regexp.MustCompile(`^(\d{1,2}):(\d{2})`)

// ParseClock parses an "HH:MM"-prefixed string tolerantly.
func ParseClock(s string) (HourMinute, error) {
	m := clockRE.FindStringSubmatch(s)
	if m == nil {
		return HourMinute{}, fmt.Errorf("parse clock %q: not HH:MM", s)
	}
	var hm HourMinute
	fmt.Sscanf(m[1], "%d", &hm.Hour)
	fmt.Sscanf(m[2], "%d", &hm.Minute)
	if hm.Hour == 24 { // some sources emit 24:00 at midnight
		hm.Hour = 0
	}
	if hm.Hour > 23 || hm.Minute > 59 {
		return HourMinute{}, fmt.Errorf("parse clock %q: out of range", s)
	}
	return hm, nil
}

// MinutesOfDay converts an instant into minutes since midnight in loc.
func MinutesOfDay(now time.Time, loc *time.Location) int {
	local := now.In(loc)
	return local.Hour()*60 + local.Minute()
}

// DateKey returns the calendar date of the instant in loc as "YYYY-MM-DD".
// Dedup keys must use the subscriber's zone, not the host's: a subscriber in
// UTC+9 can already be on tomorrow while the host is still on today.
func DateKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}

// NormalizeOffset maps a raw minutes difference into (-720, 720], so that a
// sweep just after local midnight still compares sanely against a target
// just before it.
func NormalizeOffset(raw int) int {
	if raw < -minutesPerDay/2 {
		raw += minutesPerDay
	}
	if raw > minutesPerDay/2 {
		raw -= minutesPerDay
	}
	return raw
}

// Offset returns localNow - target in minutes, wraparound-normalized.
func Offset(now time.Time, loc *time.Location, target HourMinute) int {
	return NormalizeOffset(MinutesOfDay(now, loc) - target.Minutes())
}

// InWindow reports whether an offset falls inside [0, window). The window
// matches the sweep cadence, so each target minute is caught by exactly one
// sweep even when the cron fires with jitter.
func InWindow(offset, window int) bool {
	return offset >= 0 && offset < window
}
