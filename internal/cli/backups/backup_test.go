package backups

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/streakr/internal/backup"
	"github.com/julianstephens/streakr/internal/cli"
	"github.com/julianstephens/streakr/internal/config"
	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/models"
	"github.com/julianstephens/streakr/internal/storage"
	"github.com/julianstephens/streakr/internal/storage/postgres"
)

func setupTestBackupCmd(t *testing.T) (*cli.Context, string) {
	t.Helper()
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "streakr.json")

	store := storage.NewJSONStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	ctx := &cli.Context{
		Config: &config.Config{
			Storage:         path,
			Timezone:        "UTC",
			Milestones:      constants.DefaultMilestones(),
			TrophyThreshold: constants.DefaultTrophyThreshold,
			RefreshTime:     constants.DefaultRefreshTime,
			ConfigDir:       tempDir,
		},
		Store: store,
	}
	return ctx, path
}

func TestBackupCreateAndRestore(t *testing.T) {
	ctx, path := setupTestBackupCmd(t)

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup create failed: %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup list failed: %v", err)
	}

	mgr := backup.NewManager(path)
	backups, err := mgr.ListBackups()
	if err != nil || len(backups) != 1 {
		t.Fatalf("ListBackups() = %d, %v; want 1 backup", len(backups), err)
	}

	if err := ctx.Load(); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Habits.AddHabit(models.Habit{Name: "Read"}); err != nil {
		t.Fatal(err)
	}

	cmd := &BackupRestoreCmd{BackupFile: filepath.Base(backups[0].Path), Yes: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("backup restore failed: %v", err)
	}

	restored := storage.NewJSONStore(path)
	if err := restored.Load(); err != nil {
		t.Fatal(err)
	}
	habits, _ := restored.LoadHabits()
	if len(habits) != 0 {
		t.Errorf("restored store has %d habits, want 0", len(habits))
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _ := setupTestBackupCmd(t)

	cmd := &BackupRestoreCmd{BackupFile: "streakr-19990101-0000.json", Yes: true}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected error for a missing backup")
	}
	if _, err := os.Stat(filepath.Join(ctx.Config.ConfigDir, constants.LockfileName)); !os.IsNotExist(err) {
		t.Error("lockfile left behind")
	}
}

func TestBackupUnsupportedForPostgres(t *testing.T) {
	ctx := &cli.Context{Store: postgres.New("postgres://user@localhost/streakr")}

	for _, cmd := range []interface{ Run(*cli.Context) error }{
		&BackupCreateCmd{}, &BackupListCmd{}, &BackupRestoreCmd{BackupFile: "x", Yes: true},
	} {
		if err := cmd.Run(ctx); !errors.Is(err, backup.ErrUnsupported) {
			t.Errorf("%T error = %v, want ErrUnsupported", cmd, err)
		}
	}
}
