package streak

import "github.com/julianstephens/streakr/internal/daykey"

// Set is a set of checked-in days.
type Set map[daykey.DayKey]struct{}

// NewSet builds a Set from days, ignoring duplicates.
func NewSet(days ...daykey.DayKey) Set {
	s := make(Set, len(days))
	for _, d := range days {
		s[d] = struct{}{}
	}
	return s
}

// Has reports whether day is in the set.
func (s Set) Has(day daykey.DayKey) bool {
	_, ok := s[day]
	return ok
}

// Add inserts day and reports whether it was newly added.
func (s Set) Add(day daykey.DayKey) bool {
	if s.Has(day) {
		return false
	}
	s[day] = struct{}{}
	return true
}
