package system

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/streakr/internal/backup"
	"github.com/julianstephens/streakr/internal/cli"
	"github.com/julianstephens/streakr/internal/daykey"
	"github.com/julianstephens/streakr/internal/habits"
	"github.com/julianstephens/streakr/internal/migration"
	"github.com/julianstephens/streakr/internal/models"
	"github.com/julianstephens/streakr/internal/storage/sqldb"
	"github.com/julianstephens/streakr/internal/storage/sqlite"
	"github.com/julianstephens/streakr/internal/streak"
	"github.com/julianstephens/streakr/migrations"
)

type DoctorCmd struct {
	Fix bool `help:"Recompute stale streak caches and save them."`
}

// errStale marks a check that found out-of-date caches rather than corruption.
var errStale = errors.New("stale")

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	fail := func(name string, err error) {
		fmt.Printf("❌ %s: FAIL\n", name)
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	}
	skip := func(name, reason string) {
		fmt.Printf("⊘ %s: SKIPPED (%s)\n", name, reason)
	}

	// Check 1: Storage reachable
	storeReachable := false
	if err := checkStoreReachable(ctx); err != nil {
		fail("Storage reachable", err)
	} else {
		fmt.Printf("✓ Storage reachable: OK\n")
		storeReachable = true
	}

	// Check 2: Schema version
	if storeReachable {
		if err := checkSchemaVersion(ctx); err != nil {
			fail("Schema version", err)
		} else {
			fmt.Printf("✓ Schema version: OK\n")
		}
	} else {
		skip("Schema version", "storage not reachable")
	}

	// Check 3: Backups present (warning only)
	if !backup.Supported(ctx.Store.GetConfigPath()) {
		skip("Backups present", "storage is not a local file")
	} else if err := checkBackupsPresent(ctx); err != nil {
		fmt.Printf("⚠ Backups present: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Backups present: OK\n")
	}

	// Check 4: Clock/timezone sanity
	if err := checkClockTimezone(ctx); err != nil {
		fail("Clock/timezone", err)
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	if !storeReachable {
		for _, name := range []string{"Habit records", "Streak caches", "Best streaks", "Achievements"} {
			skip(name, "storage not reachable")
		}
		return finish(hasError)
	}

	habitList, err := ctx.Store.LoadHabits()
	if err != nil {
		fail("Habit records", fmt.Errorf("failed to load habits: %w", err))
		return finish(true)
	}
	achievements, err := ctx.Store.LoadAchievements()
	if err != nil {
		fail("Achievements", fmt.Errorf("failed to load achievements: %w", err))
		return finish(true)
	}

	// Check 5: Habit records
	if err := checkHabitRecords(habitList); err != nil {
		fail("Habit records", err)
	} else {
		fmt.Printf("✓ Habit records: OK\n")
	}

	// Check 6: Streak caches match a recomputation for today
	loc, locErr := ctx.Config.Location()
	if locErr != nil {
		skip("Streak caches", "invalid timezone")
	} else if err := checkStreakCaches(habitList, daykey.FromTime(ctx.Now(), loc)); err != nil {
		if errors.Is(err, errStale) && cmd.Fix {
			n, fixErr := refreshCaches(ctx)
			if fixErr != nil {
				fail("Streak caches", fixErr)
			} else {
				fmt.Printf("✓ Streak caches: FIXED (%d recomputed)\n", n)
			}
		} else if errors.Is(err, errStale) {
			fmt.Printf("⚠ Streak caches: WARNING\n")
			fmt.Printf("   %v - run 'streakr doctor --fix' or keep 'streakr daemon' running\n", err)
		} else {
			fail("Streak caches", err)
		}
	} else {
		fmt.Printf("✓ Streak caches: OK\n")
	}

	// Check 7: Best streaks cover every recorded run (warning only)
	if err := checkBestStreaks(habitList); err != nil {
		fmt.Printf("⚠ Best streaks: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Best streaks: OK\n")
	}

	// Check 8: Achievements reference live habits once per milestone
	if err := checkAchievements(habitList, achievements); err != nil {
		fail("Achievements", err)
	} else {
		fmt.Printf("✓ Achievements: OK\n")
	}

	return finish(hasError)
}

func finish(hasError bool) error {
	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}

	// For SQLite, also try a simple query
	if sqliteStore, ok := ctx.Store.(*sqlite.Store); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	sqliteStore, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		// JSON has no schema and PostgreSQL validates its version on load
		return nil
	}

	db := sqliteStore.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	runner := migration.NewRunner(db, subFS, sqldb.SQLite)

	if err := runner.ValidateVersion(); err != nil {
		return err
	}
	pending, err := runner.Pending()
	if err != nil {
		return fmt.Errorf("failed to count pending migrations: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("migrations incomplete: %d pending", pending)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'streakr backup create'")
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if _, err := ctx.Config.Location(); err != nil {
		return err
	}

	// Check if time is in a reasonable range (after 2020 and before 2100)
	now := ctx.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkHabitRecords(habitList []models.Habit) error {
	ids := make(map[string]bool)
	for _, h := range habitList {
		if ids[h.ID] {
			return fmt.Errorf("duplicate habit ID found: %s", h.ID)
		}
		ids[h.ID] = true

		if h.Name == "" {
			return fmt.Errorf("habit %s has an empty name", h.ID)
		}
		if !h.Category.Valid() {
			return fmt.Errorf("habit %q has unknown category %q", h.Name, h.Category)
		}
		if !h.StartDay.Valid() {
			return fmt.Errorf("habit %q has invalid start day %q", h.Name, h.StartDay)
		}
		for _, d := range h.CheckedDays {
			if !d.Valid() {
				return fmt.Errorf("habit %q has invalid check-in day %q", h.Name, d)
			}
		}
		if h.LastCheckedDay != "" && !h.HasChecked(h.LastCheckedDay) {
			return fmt.Errorf("habit %q last check-in %s is missing from its history", h.Name, h.LastCheckedDay)
		}
	}
	return nil
}

// checkStreakCaches returns errStale when caches only need a refresh for today.
func checkStreakCaches(habitList []models.Habit, today daykey.DayKey) error {
	stale := 0
	for _, h := range habitList {
		if h.CurrentStreak < 0 || h.CurrentStreak > h.MaxStreak {
			return fmt.Errorf("habit %q has current streak %d above its best %d", h.Name, h.CurrentStreak, h.MaxStreak)
		}
		if streak.Compute(streak.NewSet(h.CheckedDays...), today, h.StreakFloor()) != h.CurrentStreak {
			stale++
		}
	}
	if stale > 0 {
		return fmt.Errorf("%w: %d habit streak(s) out of date for %s", errStale, stale, today)
	}
	return nil
}

// checkBestStreaks compares maxStreak with the longest run in the history.
// Habits with a reset floor are skipped since their runs were cut short on purpose.
func checkBestStreaks(habitList []models.Habit) error {
	for _, h := range habitList {
		if h.StreakFrom != "" {
			continue
		}
		counted := streak.NewSet()
		for _, d := range h.CheckedDays {
			if !d.Before(h.StartDay) {
				counted.Add(d)
			}
		}
		if longest := streak.Longest(counted); longest > h.MaxStreak {
			return fmt.Errorf("habit %q has a %d-day run on record but a best streak of %d", h.Name, longest, h.MaxStreak)
		}
	}
	return nil
}

func refreshCaches(ctx *cli.Context) (int, error) {
	var changed int
	err := ctx.Mutate(func(store *habits.Store) error {
		var err error
		changed, err = store.Refresh(ctx.Now())
		return err
	})
	return changed, err
}

func checkAchievements(habitList []models.Habit, achievements []models.Achievement) error {
	ids := make(map[string]bool, len(habitList))
	for _, h := range habitList {
		ids[h.ID] = true
	}

	type award struct {
		habitID   string
		milestone int
	}
	seen := make(map[award]bool)
	orphaned := 0
	for _, a := range achievements {
		if !ids[a.HabitID] {
			orphaned++
			continue
		}
		if a.Milestone <= 0 {
			return fmt.Errorf("achievement %s has invalid milestone %d", a.ID, a.Milestone)
		}
		key := award{a.HabitID, a.Milestone}
		if seen[key] {
			return fmt.Errorf("habit %q was awarded the %d-day milestone more than once", a.HabitName, a.Milestone)
		}
		seen[key] = true
	}
	if orphaned > 0 {
		return fmt.Errorf("found %d orphaned achievements (referencing non-existent habits)", orphaned)
	}
	return nil
}
