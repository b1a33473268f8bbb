package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/streakr/internal/cli"
	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/daykey"
	"github.com/julianstephens/streakr/internal/models"
	"github.com/julianstephens/streakr/internal/storage"
	"github.com/julianstephens/streakr/internal/storage/sqlite"
)

func setupTestInitDB(t *testing.T, name string) (*cli.Context, string) {
	t.Helper()
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, name)

	store, err := cli.OpenProvider(path)
	if err != nil {
		t.Fatalf("failed to open provider: %v", err)
	}
	ctx := &cli.Context{Config: testConfig(tempDir, path), Store: store}
	t.Cleanup(func() { ctx.Close() })
	return ctx, tempDir
}

func TestInitCmd(t *testing.T) {
	ctx, dir := setupTestInitDB(t, "streakr.json")

	cmd := &InitCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, constants.ConfigFileName+".yaml")); err != nil {
		t.Errorf("config file not written: %v", err)
	}
	if _, err := os.Stat(ctx.Store.GetConfigPath()); err != nil {
		t.Errorf("store not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, constants.LockfileName)); !os.IsNotExist(err) {
		t.Error("init left the lockfile behind")
	}

	// A second init reports the existing store instead of failing.
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("second init failed: %v", err)
	}
}

func TestInitCmdForce(t *testing.T) {
	ctx, _ := setupTestInitDB(t, "streakr.db")

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	addCheckedHabit(t, ctx, "Read")

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	if err := ctx.Store.Load(); err != nil {
		t.Fatalf("load after force failed: %v", err)
	}
	habits, err := ctx.Store.LoadHabits()
	if err != nil {
		t.Fatalf("failed to load habits: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("init --force kept %d habits", len(habits))
	}
}

func TestInitCmdForceRejectsSameSource(t *testing.T) {
	ctx, _ := setupTestInitDB(t, "streakr.db")

	cmd := &InitCmd{Force: true, Source: ctx.Store.GetConfigPath()}
	if err := cmd.Run(ctx); err == nil {
		t.Error("init --force with itself as source should fail")
	}
}

func TestInitCmdCopiesSource(t *testing.T) {
	sourcePath := filepath.Join(t.TempDir(), "old.json")
	source := storage.NewJSONStore(sourcePath)
	if err := source.Init(); err != nil {
		t.Fatalf("failed to initialize source: %v", err)
	}
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	err := source.SaveSnapshot(storage.Snapshot{
		Habits: []models.Habit{{
			ID: "h1", Name: "Run", Category: models.CategorySport,
			StartDate: now, StartDay: "2024-05-01", CheckedDays: []daykey.DayKey{"2024-05-01"},
			CurrentStreak: 1, MaxStreak: 1, CreatedAt: now, UpdatedAt: now,
		}},
		Achievements: []models.Achievement{},
	})
	if err != nil {
		t.Fatalf("failed to seed source: %v", err)
	}

	ctx, _ := setupTestInitDB(t, "streakr.db")
	if err := (&InitCmd{Source: sourcePath}).Run(ctx); err != nil {
		t.Fatalf("init --source failed: %v", err)
	}

	habits, err := ctx.Store.(*sqlite.Store).LoadHabits()
	if err != nil {
		t.Fatalf("failed to load habits: %v", err)
	}
	if len(habits) != 1 || habits[0].Name != "Run" || len(habits[0].CheckedDays) != 1 {
		t.Errorf("copied habits = %+v", habits)
	}
}
