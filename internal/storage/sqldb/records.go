package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/streakr/internal/daykey"
	"github.com/julianstephens/streakr/internal/models"
)

// Timestamps are stored as RFC 3339 text with nanoseconds so instants round-trip exactly.
const timeLayout = time.RFC3339Nano

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LoadHabits reads every habit with its full check-in history.
func LoadHabits(ctx context.Context, db *sql.DB, d Dialect) ([]models.Habit, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, category, comment, start_date, start_day,
			last_checked_at, last_checked_day, streak_from,
			current_streak, max_streak, is_trophy, trophy_awarded,
			created_at, updated_at
		FROM habits ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	index := map[string]int{}
	for rows.Next() {
		var h models.Habit
		var category, startDate, startDay, createdAt, updatedAt string
		var lastCheckedAt, lastCheckedDay, streakFrom sql.NullString

		err := rows.Scan(&h.ID, &h.Name, &category, &h.Comment, &startDate, &startDay,
			&lastCheckedAt, &lastCheckedDay, &streakFrom,
			&h.CurrentStreak, &h.MaxStreak, &h.IsTrophy, &h.TrophyAwarded,
			&createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		h.Category = models.Category(category)
		h.StartDay = daykey.DayKey(startDay)
		if h.StartDate, err = time.Parse(timeLayout, startDate); err != nil {
			return nil, fmt.Errorf("failed to parse start_date for habit %s: %w", h.ID, err)
		}
		if h.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
		}
		if h.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at for habit %s: %w", h.ID, err)
		}
		if lastCheckedAt.Valid {
			t, err := time.Parse(timeLayout, lastCheckedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse last_checked_at for habit %s: %w", h.ID, err)
			}
			h.LastCheckedAt = &t
		}
		if lastCheckedDay.Valid {
			h.LastCheckedDay = daykey.DayKey(lastCheckedDay.String)
		}
		if streakFrom.Valid {
			h.StreakFrom = daykey.DayKey(streakFrom.String)
		}

		index[h.ID] = len(habits)
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	checkins, err := db.QueryContext(ctx, "SELECT habit_id, day FROM habit_checkins ORDER BY habit_id, day")
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer checkins.Close()

	for checkins.Next() {
		var habitID, day string
		if err := checkins.Scan(&habitID, &day); err != nil {
			return nil, err
		}
		i, ok := index[habitID]
		if !ok {
			continue
		}
		habits[i].CheckedDays = append(habits[i].CheckedDays, daykey.DayKey(day))
	}
	return habits, checkins.Err()
}

// LoadAchievements reads every achievement in the order they were earned.
func LoadAchievements(ctx context.Context, db *sql.DB, d Dialect) ([]models.Achievement, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, habit_id, milestone, achieved_at, habit_name, habit_category
		FROM achievements ORDER BY achieved_at, milestone`)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievements: %w", err)
	}
	defer rows.Close()

	achievements := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		var achievedAt, category string
		if err := rows.Scan(&a.ID, &a.HabitID, &a.Milestone, &achievedAt, &a.HabitName, &category); err != nil {
			return nil, err
		}
		a.HabitCategory = models.Category(category)
		if a.AchievedAt, err = time.Parse(timeLayout, achievedAt); err != nil {
			return nil, fmt.Errorf("failed to parse achieved_at for achievement %s: %w", a.ID, err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// SaveSnapshot replaces every stored habit, check-in and achievement in one transaction.
func SaveSnapshot(ctx context.Context, db *sql.DB, d Dialect, habits []models.Habit, achievements []models.Achievement) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		if err := replaceHabits(ctx, tx, d, habits); err != nil {
			return err
		}
		return replaceAchievements(ctx, tx, d, achievements)
	})
}

// SaveHabits replaces every stored habit and check-in.
func SaveHabits(ctx context.Context, db *sql.DB, d Dialect, habits []models.Habit) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		return replaceHabits(ctx, tx, d, habits)
	})
}

// SaveAchievements replaces every stored achievement.
func SaveAchievements(ctx context.Context, db *sql.DB, d Dialect, achievements []models.Achievement) error {
	return inTx(ctx, db, func(tx *sql.Tx) error {
		return replaceAchievements(ctx, tx, d, achievements)
	})
}

func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func replaceHabits(ctx context.Context, tx execer, d Dialect, habits []models.Habit) error {
	// Check-ins first so the foreign key never points at a missing habit.
	if _, err := tx.ExecContext(ctx, "DELETE FROM habit_checkins"); err != nil {
		return fmt.Errorf("failed to clear check-ins: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM habits"); err != nil {
		return fmt.Errorf("failed to clear habits: %w", err)
	}

	insertHabit := d.Rebind(`
		INSERT INTO habits (id, name, category, comment, start_date, start_day,
			last_checked_at, last_checked_day, streak_from,
			current_streak, max_streak, is_trophy, trophy_awarded,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insertCheckin := d.Rebind("INSERT INTO habit_checkins (habit_id, day) VALUES (?, ?)")

	for _, h := range habits {
		var lastCheckedAt, lastCheckedDay, streakFrom sql.NullString
		if h.LastCheckedAt != nil {
			lastCheckedAt = sql.NullString{String: h.LastCheckedAt.Format(timeLayout), Valid: true}
		}
		if h.LastCheckedDay != "" {
			lastCheckedDay = sql.NullString{String: string(h.LastCheckedDay), Valid: true}
		}
		if h.StreakFrom != "" {
			streakFrom = sql.NullString{String: string(h.StreakFrom), Valid: true}
		}

		_, err := tx.ExecContext(ctx, insertHabit,
			h.ID, h.Name, string(h.Category), h.Comment,
			h.StartDate.Format(timeLayout), string(h.StartDay),
			lastCheckedAt, lastCheckedDay, streakFrom,
			h.CurrentStreak, h.MaxStreak, h.IsTrophy, h.TrophyAwarded,
			h.CreatedAt.Format(timeLayout), h.UpdatedAt.Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to save habit %s: %w", h.ID, err)
		}

		for _, day := range models.SortDays(h.CheckedDays) {
			if _, err := tx.ExecContext(ctx, insertCheckin, h.ID, string(day)); err != nil {
				return fmt.Errorf("failed to save check-in %s for habit %s: %w", day, h.ID, err)
			}
		}
	}
	return nil
}

func replaceAchievements(ctx context.Context, tx execer, d Dialect, achievements []models.Achievement) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM achievements"); err != nil {
		return fmt.Errorf("failed to clear achievements: %w", err)
	}

	insert := d.Rebind(`
		INSERT INTO achievements (id, habit_id, milestone, achieved_at, habit_name, habit_category)
		VALUES (?, ?, ?, ?, ?, ?)`)
	for _, a := range achievements {
		_, err := tx.ExecContext(ctx, insert,
			a.ID, a.HabitID, a.Milestone, a.AchievedAt.Format(timeLayout), a.HabitName, string(a.HabitCategory))
		if err != nil {
			return fmt.Errorf("failed to save achievement %s: %w", a.ID, err)
		}
	}
	return nil
}
