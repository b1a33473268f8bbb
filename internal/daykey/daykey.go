// Package daykey normalizes instants into calendar-day identifiers.
//
// A DayKey is computed once, at the moment an event is recorded, in the
// location that was in effect at that moment. Stored keys are never
// reinterpreted later, so a device changing its clock or time zone cannot
// move a past check-in onto a different day.
package daykey

import (
	"fmt"
	"time"

	"github.com/julianstephens/streakr/internal/constants"
)

// DayKey identifies one calendar day as YYYY-MM-DD. Lexical order equals date order.
type DayKey string

// FromTime returns the calendar day t falls on in loc.
// A nil loc uses t's own location.
func FromTime(t time.Time, loc *time.Location) DayKey {
	if loc != nil {
		t = t.In(loc)
	}
	return DayKey(t.Format(constants.DateFormat))
}

// Parse validates s and returns it as a DayKey.
func Parse(s string) (DayKey, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid day %q (expected YYYY-MM-DD): %w", s, err)
	}
	// Reformat so that inputs time.Parse tolerates still come out canonical.
	return DayKey(t.Format(constants.DateFormat)), nil
}

// MustParse is like Parse but panics on invalid input. Intended for tests and literals.
func MustParse(s string) DayKey {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Valid reports whether d is a well-formed day key.
func (d DayKey) Valid() bool {
	_, err := Parse(string(d))
	return err == nil && d != ""
}

func (d DayKey) String() string { return string(d) }

// date returns d as midnight UTC. Day arithmetic happens on this UTC calendar
// so DST transitions in the user's zone never skip or repeat a day.
func (d DayKey) date() time.Time {
	t, err := time.Parse(constants.DateFormat, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the day n days after d (n may be negative).
func (d DayKey) AddDays(n int) DayKey {
	return DayKey(d.date().AddDate(0, 0, n).Format(constants.DateFormat))
}

// Prev returns the day before d.
func (d DayKey) Prev() DayKey { return d.AddDays(-1) }

// Next returns the day after d.
func (d DayKey) Next() DayKey { return d.AddDays(1) }

// Before reports whether d is strictly earlier than o.
func (d DayKey) Before(o DayKey) bool { return d < o }

// After reports whether d is strictly later than o.
func (d DayKey) After(o DayKey) bool { return d > o }

// Time returns midnight of d in loc.
func (d DayKey) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t := d.date()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}
