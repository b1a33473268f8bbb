package models

import "time"

// Achievement records a habit's streak first reaching a milestone.
// HabitName and HabitCategory are snapshots taken when it was earned.
type Achievement struct {
	ID            string    `json:"id"`
	HabitID       string    `json:"habit_id"`
	Milestone     int       `json:"milestone"`
	AchievedAt    time.Time `json:"achieved_at"`
	HabitName     string    `json:"habit_name"`
	HabitCategory Category  `json:"habit_category"`
}
