package habits

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakr/internal/cli"
	core "github.com/julianstephens/streakr/internal/habits"
	"github.com/julianstephens/streakr/internal/models"
	"github.com/julianstephens/streakr/internal/tui"
)

type HabitCmd struct {
	Add      HabitAddCmd      `cmd:"" help:"Add a new habit."`
	Edit     HabitEditCmd     `cmd:"" help:"Edit an existing habit."`
	Delete   HabitDeleteCmd   `cmd:"" help:"Delete a habit and its achievements."`
	List     HabitListCmd     `cmd:"" help:"List habits."`
	Show     HabitShowCmd     `cmd:"" help:"Show a habit's streak and achievements."`
	Checkin  HabitCheckinCmd  `cmd:"" help:"Check in a habit for today."`
	Reset    HabitResetCmd    `cmd:"" help:"Reset a habit's current streak."`
	Trophy   HabitTrophyCmd   `cmd:"" help:"Move a habit to the trophy gallery."`
	Untrophy HabitUntrophyCmd `cmd:"" help:"Remove a habit from the trophy gallery."`
}

type HabitAddCmd struct {
	Name     string `arg:"" optional:"" help:"Habit name. Omit to use the guided form."`
	Category string `help:"Category: food, technology, health, sport or other." default:"other"`
	Comment  string `help:"Optional comment."`
	Start    string `help:"Start date in YYYY-MM-DD format (default: today)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	habit, err := c.habit(ctx)
	if err != nil {
		return err
	}

	return ctx.Mutate(func(store *core.Store) error {
		added, err := store.AddHabit(habit)
		if err != nil && !errors.Is(err, core.ErrPersistence) {
			return err
		}
		fmt.Printf("Added habit: %s (%s)\n", added.Name, shortID(added.ID))
		return err
	})
}

func (c *HabitAddCmd) habit(ctx *cli.Context) (models.Habit, error) {
	if strings.TrimSpace(c.Name) == "" {
		fm := &tui.HabitFormModel{}
		if err := tui.NewHabitForm(fm).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return models.Habit{}, errors.New("cancelled")
			}
			return models.Habit{}, err
		}
		loc, err := ctx.Config.Location()
		if err != nil {
			return models.Habit{}, err
		}
		return fm.Habit(loc)
	}

	category, err := models.ParseCategory(c.Category)
	if err != nil {
		return models.Habit{}, err
	}
	habit := models.Habit{Name: c.Name, Category: category, Comment: c.Comment}
	if c.Start != "" {
		if habit.StartDate, err = ctx.ParseDate(c.Start); err != nil {
			return models.Habit{}, err
		}
	}
	return habit, nil
}

type HabitEditCmd struct {
	Habit        string `arg:"" help:"Habit name or id."`
	Name         string `help:"New name."`
	Category     string `help:"New category."`
	Comment      string `help:"New comment."`
	ClearComment bool   `help:"Remove the comment."`
	Start        string `help:"New start date in YYYY-MM-DD format."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	return ctx.Mutate(func(store *core.Store) error {
		habit, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}

		if c.Name != "" {
			habit.Name = c.Name
		}
		if c.Category != "" {
			if habit.Category, err = models.ParseCategory(c.Category); err != nil {
				return err
			}
		}
		if c.Comment != "" {
			habit.Comment = c.Comment
		}
		if c.ClearComment {
			habit.Comment = ""
		}
		if c.Start != "" {
			if habit.StartDate, err = ctx.ParseDate(c.Start); err != nil {
				return err
			}
		}

		updated, err := store.UpdateHabit(habit)
		if err != nil && !errors.Is(err, core.ErrPersistence) {
			return err
		}
		fmt.Printf("Updated habit: %s (streak %d, best %d)\n", updated.Name, updated.CurrentStreak, updated.MaxStreak)
		return err
	})
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or id to delete."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	return ctx.Mutate(func(store *core.Store) error {
		habit, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}

		if !c.Yes {
			fmt.Printf("Delete %q and its %d achievement(s)? [y/N]: ", habit.Name, len(store.AchievementsFor(habit.ID)))
			if !confirm() {
				fmt.Println("Delete cancelled.")
				return nil
			}
		}

		ctx.PerformAutomaticBackup()
		err = store.DeleteHabit(habit.ID)
		if err != nil && !errors.Is(err, core.ErrPersistence) {
			return err
		}
		fmt.Printf("Deleted habit: %s\n", habit.Name)
		return err
	})
}

func confirm() bool {
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

type HabitCheckinCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitCheckinCmd) Run(ctx *cli.Context) error {
	return ctx.Mutate(func(store *core.Store) error {
		habit, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}

		res, err := store.CheckInToday(habit.ID, ctx.Now())
		if err != nil && !errors.Is(err, core.ErrPersistence) {
			return err
		}
		if !res.Checked {
			fmt.Printf("%s is already checked in for %s (streak %d)\n", habit.Name, res.Day, res.Streak)
			return err
		}

		fmt.Printf("✓ %s checked in for %s\n", habit.Name, res.Day)
		fmt.Printf("  🔥 Streak: %d (best %d)\n", res.Streak, res.MaxStreak)
		if res.Achievement != nil {
			fmt.Printf("  🏅 Achievement unlocked: %d-day streak!\n", res.Achievement.Milestone)
		}
		if res.Promoted {
			fmt.Println("  🏆 Moved to the trophy gallery")
		}
		if next, ok := store.Ladder().Next(res.Streak); ok {
			fmt.Printf("  Next milestone: %d days (%d to go)\n", next, next-res.Streak)
		}
		return err
	})
}

type HabitResetCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitResetCmd) Run(ctx *cli.Context) error {
	return ctx.Mutate(func(store *core.Store) error {
		habit, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}
		err = store.ResetStreak(habit.ID)
		if err != nil && !errors.Is(err, core.ErrPersistence) {
			return err
		}
		fmt.Printf("Reset streak for %s (best streak %d kept)\n", habit.Name, habit.MaxStreak)
		return err
	})
}

type HabitTrophyCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitTrophyCmd) Run(ctx *cli.Context) error {
	return ctx.Mutate(func(store *core.Store) error {
		habit, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}
		err = store.PromoteToTrophy(habit.ID)
		if err != nil && !errors.Is(err, core.ErrPersistence) {
			return err
		}
		fmt.Printf("🏆 %s added to trophies\n", habit.Name)
		return err
	})
}

type HabitUntrophyCmd struct {
	Habit string `arg:"" help:"Habit name or id."`
}

func (c *HabitUntrophyCmd) Run(ctx *cli.Context) error {
	return ctx.Mutate(func(store *core.Store) error {
		habit, err := ctx.FindHabit(c.Habit)
		if err != nil {
			return err
		}
		err = store.DemoteFromTrophy(habit.ID)
		if err != nil && !errors.Is(err, core.ErrPersistence) {
			return err
		}
		fmt.Printf("%s removed from trophies\n", habit.Name)
		return err
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
