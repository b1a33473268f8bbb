package habits

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/streakr/internal/cli"
	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/models"
)

type HabitListCmd struct {
	Category string `help:"Only list habits in this category."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	habits := ctx.Habits.Habits()
	if c.Category != "" {
		category, err := models.ParseCategory(c.Category)
		if err != nil {
			return err
		}
		kept := habits[:0]
		for _, h := range habits {
			if h.Category == category {
				kept = append(kept, h)
			}
		}
		habits = kept
	}

	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	printHabits(habits, ctx.Habits.Today().String())
	return nil
}

type ActiveCmd struct{}

func (c *ActiveCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	active := ctx.Habits.Active()
	if len(active) == 0 {
		fmt.Println("No active streaks. Check in a habit to start one.")
		return nil
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].CurrentStreak > active[j].CurrentStreak })
	printHabits(active, ctx.Habits.Today().String())
	return nil
}

type TrophiesCmd struct{}

func (c *TrophiesCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	trophies := ctx.Habits.Trophies()
	if len(trophies) == 0 {
		fmt.Println("No trophies yet.")
		return nil
	}

	fmt.Printf("Trophy gallery (%d):\n\n", len(trophies))
	for _, h := range trophies {
		fmt.Printf("  🏆 %-24s best %3d  %s\n", truncate(h.Name, 24), h.MaxStreak, h.Category.Label())
	}
	return nil
}

type AchievementsCmd struct {
	Habit string `arg:"" optional:"" help:"Only show achievements for this habit (name or id)."`
}

func (c *AchievementsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	var achievements []models.Achievement
	if c.Habit != "" {
		habit, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}
		achievements = ctx.Habits.AchievementsFor(habit.ID)
	} else {
		achievements = ctx.Habits.Achievements()
	}

	if len(achievements) == 0 {
		fmt.Println("No achievements yet.")
		return nil
	}

	fmt.Printf("Achievements (%d):\n\n", len(achievements))
	printAchievements(achievements)
	return nil
}

type HabitShowCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitShowCmd) Run(ctx *cli.Context) error {
	if err := ctx.Load(); err != nil {
		return err
	}

	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", habit.Name)
	fmt.Printf("  ID:        %s\n", habit.ID)
	fmt.Printf("  Category:  %s\n", habit.Category.Label())
	if habit.Comment != "" {
		fmt.Printf("  Comment:   %s\n", habit.Comment)
	}
	fmt.Printf("  Started:   %s\n", habit.StartDay)
	fmt.Printf("  Streak:    %d (best %d)\n", habit.CurrentStreak, habit.MaxStreak)
	fmt.Printf("  Check-ins: %d\n", len(habit.CheckedDays))
	if habit.LastCheckedAt != nil {
		fmt.Printf("  Last:      %s\n", habit.LastCheckedAt.In(ctx.Habits.Location()).Format(constants.DateFormat+" "+constants.TimeFormat))
	}
	if habit.IsTrophy {
		fmt.Println("  🏆 In the trophy gallery")
	}
	if next, ok := ctx.Habits.Ladder().Next(habit.CurrentStreak); ok {
		fmt.Printf("  Next milestone: %d days (%d to go)\n", next, next-habit.CurrentStreak)
	}

	if achievements := ctx.Habits.AchievementsFor(habit.ID); len(achievements) > 0 {
		fmt.Println("\nAchievements:")
		printAchievements(achievements)
	}
	return nil
}

func printHabits(habits []models.Habit, today string) {
	fmt.Printf("  %-10s %-24s %-11s %6s %6s\n", "ID", "NAME", "CATEGORY", "STREAK", "BEST")
	fmt.Println("  " + strings.Repeat("-", 62))
	for _, h := range habits {
		marker := " "
		if string(h.LastCheckedDay) == today {
			marker = "✓"
		}
		name := truncate(h.Name, 24)
		if h.IsTrophy {
			name = truncate("🏆 "+h.Name, 24)
		}
		fmt.Printf("%s %-10s %-24s %-11s %6d %6d\n", marker, shortID(h.ID), name, h.Category.Label(), h.CurrentStreak, h.MaxStreak)
	}
}

func printAchievements(achievements []models.Achievement) {
	for _, a := range achievements {
		fmt.Printf("  %s  🏅 %3d days  %s (%s)\n", a.AchievedAt.Format(constants.DateFormat), a.Milestone, a.HabitName, a.HabitCategory.Label())
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
