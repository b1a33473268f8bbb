package models

import (
	"sort"
	"time"

	"github.com/julianstephens/streakr/internal/daykey"
)

// Habit is one tracked practice and its check-in history.
//
// CurrentStreak and MaxStreak are caches maintained by the habit store; they
// are always recomputed from CheckedDays and never set by callers.
type Habit struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Comment  string   `json:"comment,omitempty"`

	// StartDate is the instant the user declared as day zero. StartDay is the
	// day it normalized to when it was recorded.
	StartDate time.Time     `json:"start_date"`
	StartDay  daykey.DayKey `json:"start_day"`

	CheckedDays []daykey.DayKey `json:"checked_days"`

	LastCheckedAt  *time.Time    `json:"last_checked_at,omitempty"`
	LastCheckedDay daykey.DayKey `json:"last_checked_day,omitempty"`

	// StreakFrom is set by a streak reset; days before it never count toward the current streak.
	StreakFrom daykey.DayKey `json:"streak_from,omitempty"`

	CurrentStreak int  `json:"current_streak"`
	MaxStreak     int  `json:"max_streak"`
	IsTrophy      bool `json:"is_trophy"`
	// TrophyAwarded latches once auto-promotion has fired so a manual demotion sticks.
	TrophyAwarded bool `json:"trophy_awarded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasChecked reports whether day is in the habit's check-in history.
func (h Habit) HasChecked(day daykey.DayKey) bool {
	for _, d := range h.CheckedDays {
		if d == day {
			return true
		}
	}
	return false
}

// StreakFloor returns the earliest day that may count toward the current streak.
func (h Habit) StreakFloor() daykey.DayKey {
	if h.StreakFrom > h.StartDay {
		return h.StreakFrom
	}
	return h.StartDay
}

// Clone returns a deep copy so callers can't alias the store's slices.
func (h Habit) Clone() Habit {
	c := h
	if h.CheckedDays != nil {
		c.CheckedDays = append([]daykey.DayKey(nil), h.CheckedDays...)
	}
	if h.LastCheckedAt != nil {
		t := *h.LastCheckedAt
		c.LastCheckedAt = &t
	}
	return c
}

// SortDays orders check-in days ascending and drops duplicates.
func SortDays(days []daykey.DayKey) []daykey.DayKey {
	if len(days) == 0 {
		return days
	}
	sorted := append([]daykey.DayKey(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := sorted[:1]
	for _, d := range sorted[1:] {
		if d != out[len(out)-1] {
			out = append(out, d)
		}
	}
	return out
}
