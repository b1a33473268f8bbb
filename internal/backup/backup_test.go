package backup

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/streakr/internal/constants"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "streakr.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE habits (id TEXT PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO habits (id, name) VALUES ('h1', 'Read'), ('h2', 'Run')`); err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}
	return dbPath
}

// stepClock makes each backup one minute newer than the last.
func stepClock(t *testing.T) {
	t.Helper()
	old := nowFunc
	t.Cleanup(func() { nowFunc = old })

	next := time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)
	nowFunc = func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func countHabits(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM habits").Scan(&count); err != nil {
		t.Fatalf("failed to query database: %v", err)
	}
	return count
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	stepClock(t)

	mgr := NewManager(dbPath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if filepath.Base(backupPath) != "streakr-20240501-0800.db" {
		t.Errorf("backup name = %s", filepath.Base(backupPath))
	}
	if filepath.Dir(backupPath) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written to %s, want the backups directory", filepath.Dir(backupPath))
	}
	if count := countHabits(t, backupPath); count != 2 {
		t.Errorf("expected 2 rows in backup, got %d", count)
	}
}

func TestCreateBackupMissingStore(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("CreateBackup() error = %v, want missing store error", err)
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	stepClock(t)

	mgr := NewManager(dbPath)
	var newest string
	for i := 0; i < constants.MaxBackups+5; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
		newest = path
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	if backups[0].Path != newest {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, newest)
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i].Timestamp.Before(backups[i-1].Timestamp) {
			t.Errorf("backups are not sorted newest first at %d", i)
		}
	}
}

func TestListBackupsIgnoresForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	stepClock(t)

	mgr := NewManager(dbPath)
	if backups, err := mgr.ListBackups(); err != nil || len(backups) != 0 {
		t.Fatalf("ListBackups() before any backup = %v, %v", backups, err)
	}
	if _, err := mgr.CreateBackup(); err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	for _, name := range []string{"notes.txt", "streakr-garbage.db", "streakr-20240501-0800.json"} {
		if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 1 || backups[0].Size == 0 || backups[0].Timestamp.IsZero() {
		t.Errorf("ListBackups() = %+v, want the single real backup", backups)
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	stepClock(t)

	mgr := NewManager(dbPath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec("INSERT INTO habits (id, name) VALUES ('h3', 'Swim')"); err != nil {
		t.Fatalf("failed to insert data: %v", err)
	}
	db.Close()

	current, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	if count := countHabits(t, dbPath); count != 2 {
		t.Errorf("expected 2 rows after restore, got %d", count)
	}
	if count := countHabits(t, current); count != 3 {
		t.Errorf("pre-restore backup should hold the replaced state, got %d rows", count)
	}
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	invalid := filepath.Join(t.TempDir(), "invalid.db")
	if err := os.WriteFile(invalid, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.RestoreBackup(invalid); err == nil {
		t.Error("RestoreBackup should fail for an invalid backup")
	}
	if count := countHabits(t, dbPath); count != 2 {
		t.Errorf("failed restore touched the store, got %d rows", count)
	}
	if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("RestoreBackup should fail for a missing backup")
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	dbPath := setupTestDB(t)

	old := nowFunc
	defer func() { nowFunc = old }()
	fixed := time.Date(2024, 5, 1, 8, 0, 30, 0, time.Local)
	nowFunc = func() time.Time { return fixed }

	mgr := NewManager(dbPath)
	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
		name := filepath.Base(path)
		if seen[name] {
			t.Errorf("duplicate backup filename: %s", name)
		}
		seen[name] = true
	}

	want := []string{"streakr-20240501-0800.db", "streakr-20240501-080030.db", "streakr-20240501-080030-1.db", "streakr-20240501-080030-2.db"}
	for _, name := range want {
		if !seen[name] {
			t.Errorf("missing backup %s, got %v", name, seen)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil || len(backups) != 4 {
		t.Errorf("ListBackups() = %d backups, %v; want 4", len(backups), err)
	}
}

func TestJSONBackupRestore(t *testing.T) {
	stepClock(t)
	storePath := filepath.Join(t.TempDir(), "streakr.json")
	if err := os.WriteFile(storePath, []byte(`{"version":1,"habits":[]}`), 0600); err != nil {
		t.Fatal(err)
	}

	mgr := NewManager(storePath)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if !strings.HasSuffix(backupPath, ".json") {
		t.Errorf("JSON backup %s should keep the .json suffix", backupPath)
	}

	if err := os.WriteFile(storePath, []byte(`{"version":1,"habits":[{"id":"h1"}]}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	data, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":1,"habits":[]}` {
		t.Errorf("restored store = %s", data)
	}

	if err := os.WriteFile(storePath, []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("CreateBackup should refuse a corrupted JSON store")
	}
}

func TestSupported(t *testing.T) {
	dbPath := setupTestDB(t)

	tests := []struct {
		path string
		want bool
	}{
		{path: dbPath, want: true},
		{path: "", want: false},
		{path: "postgres://user@host/db", want: false},
		{path: "postgresql", want: false},
		{path: filepath.Dir(dbPath), want: false},
	}
	for _, tt := range tests {
		if got := Supported(tt.path); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
