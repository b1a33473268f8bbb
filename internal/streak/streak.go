// Package streak holds the pure streak arithmetic: the backward-scan
// calculator, the once-per-day check-in gate and the milestone ladder.
// Nothing here reads the wall clock; "today" is always a parameter.
package streak

import (
	"time"

	"github.com/julianstephens/streakr/internal/daykey"
)

// Compute returns the length of the run of consecutive checked days ending at
// today. When today is not checked yet the run ending yesterday is counted, so
// "not yet checked today" is distinguishable from a broken streak. Days before
// from are never counted; an empty from means no lower bound.
//
// The scan walks backward one day at a time and stops at the first gap, so it
// costs O(streak length) regardless of how much history the set holds.
func Compute(checked Set, today, from daykey.DayKey) int {
	if len(checked) == 0 {
		return 0
	}

	day := today
	if !checked.Has(day) {
		day = day.Prev()
	}

	count := 0
	for checked.Has(day) {
		if from != "" && day.Before(from) {
			break
		}
		count++
		day = day.Prev()
	}
	return count
}

// Longest returns the longest run of consecutive days anywhere in checked.
func Longest(checked Set) int {
	longest := 0
	for day := range checked {
		// Only start counting at the first day of a run.
		if checked.Has(day.Prev()) {
			continue
		}
		run := 0
		for d := day; checked.Has(d); d = d.Next() {
			run++
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// CanCheckToday reports whether a habit last checked at lastCheckedAt may be
// checked again at now. Both instants are normalized in loc.
func CanCheckToday(lastCheckedAt *time.Time, now time.Time, loc *time.Location) bool {
	if lastCheckedAt == nil {
		return true
	}
	return CanCheckDay(daykey.FromTime(*lastCheckedAt, loc), daykey.FromTime(now, loc))
}

// CanCheckDay is CanCheckToday for days that were already normalized when recorded.
func CanCheckDay(lastCheckedDay, today daykey.DayKey) bool {
	return lastCheckedDay == "" || lastCheckedDay != today
}
