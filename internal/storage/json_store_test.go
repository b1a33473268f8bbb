package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/streakr/internal/daykey"
	"github.com/julianstephens/streakr/internal/models"
)

func setupJSONStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streakr.json")
	store := NewJSONStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	return store, path
}

func TestJSONStoreInitTwice(t *testing.T) {
	_, path := setupJSONStore(t)

	err := NewJSONStore(path).Init()
	if err == nil || !strings.Contains(err.Error(), "already initialized") {
		t.Errorf("second Init() error = %v, want already initialized", err)
	}
}

func TestJSONStoreLoadMissing(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))
	if err := store.Load(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Load() error = %v, want ErrNotInitialized", err)
	}
	if _, err := store.LoadHabits(); err == nil {
		t.Error("LoadHabits() on an unloaded store should fail")
	}
}

func TestJSONStoreRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streakr.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := NewJSONStore(path).Load(); err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("Load() error = %v, want version error", err)
	}
}

func TestJSONStoreSnapshotRoundTrip(t *testing.T) {
	store, path := setupJSONStore(t)

	last := time.Date(2024, 5, 3, 22, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Habits: []models.Habit{{
			ID:            "h1",
			Name:          "Meditate",
			Category:      models.CategoryHealth,
			StartDay:      "2024-05-01",
			CheckedDays:   []daykey.DayKey{"2024-05-03", "2024-05-01", "2024-05-02", "2024-05-03"},
			LastCheckedAt: &last,
			CurrentStreak: 3,
			MaxStreak:     3,
		}},
		Achievements: []models.Achievement{{ID: "a1", HabitID: "h1", Milestone: 7, AchievedAt: last}},
	}
	if err := store.SaveSnapshot(snap); err != nil {
		t.Fatalf("SaveSnapshot() error: %v", err)
	}

	// Caller mutations after the save must not leak into the store.
	snap.Habits[0].CheckedDays[0] = "1999-01-01"

	reopened := NewJSONStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	habits, err := reopened.LoadHabits()
	if err != nil {
		t.Fatalf("LoadHabits() error: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("LoadHabits() returned %d habits, want 1", len(habits))
	}
	want := []daykey.DayKey{"2024-05-01", "2024-05-02", "2024-05-03"}
	if len(habits[0].CheckedDays) != len(want) {
		t.Fatalf("CheckedDays = %v, want %v", habits[0].CheckedDays, want)
	}
	for i := range want {
		if habits[0].CheckedDays[i] != want[i] {
			t.Errorf("CheckedDays = %v, want %v", habits[0].CheckedDays, want)
			break
		}
	}
	if habits[0].LastCheckedAt == nil || !habits[0].LastCheckedAt.Equal(last) {
		t.Errorf("LastCheckedAt = %v, want %v", habits[0].LastCheckedAt, last)
	}

	achievements, err := reopened.LoadAchievements()
	if err != nil {
		t.Fatalf("LoadAchievements() error: %v", err)
	}
	if len(achievements) != 1 || achievements[0].Milestone != 7 {
		t.Errorf("LoadAchievements() = %+v", achievements)
	}
}

func TestJSONStorePartialSaves(t *testing.T) {
	store, _ := setupJSONStore(t)

	if err := store.SaveAchievements([]models.Achievement{{ID: "a1", HabitID: "h1", Milestone: 7}}); err != nil {
		t.Fatalf("SaveAchievements() error: %v", err)
	}
	if err := store.SaveHabits([]models.Habit{{ID: "h1", Name: "Walk"}}); err != nil {
		t.Fatalf("SaveHabits() error: %v", err)
	}

	achievements, _ := store.LoadAchievements()
	if len(achievements) != 1 {
		t.Errorf("SaveHabits() dropped achievements: %+v", achievements)
	}
	habits, _ := store.LoadHabits()
	if len(habits) != 1 || habits[0].Name != "Walk" {
		t.Errorf("LoadHabits() = %+v", habits)
	}
}

func TestJSONStoreFailedWriteKeepsState(t *testing.T) {
	store, path := setupJSONStore(t)

	if err := store.SaveHabits([]models.Habit{{ID: "h1", Name: "Walk"}}); err != nil {
		t.Fatalf("SaveHabits() error: %v", err)
	}

	// Writing into a directory that no longer exists fails the temp file.
	store.path = filepath.Join(filepath.Dir(path), "gone", "streakr.json")
	if err := store.SaveHabits([]models.Habit{}); err == nil {
		t.Fatal("SaveHabits() into a missing directory should fail")
	}

	habits, _ := store.LoadHabits()
	if len(habits) != 1 {
		t.Errorf("failed save replaced in-memory state: %+v", habits)
	}
}
