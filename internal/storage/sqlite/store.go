package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/streakr/internal/logger"
	"github.com/julianstephens/streakr/internal/migration"
	"github.com/julianstephens/streakr/internal/models"
	"github.com/julianstephens/streakr/internal/storage"
	"github.com/julianstephens/streakr/internal/storage/sqldb"
	"github.com/julianstephens/streakr/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}

	if err := s.open(); err != nil {
		return err
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	if err := runner.ValidateVersion(); err != nil {
		return err
	}

	// Older databases pick up new migrations on load.
	pending, err := runner.Pending()
	if err != nil {
		return err
	}
	if pending > 0 {
		if err := s.runMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return nil
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps the foreign_keys pragma in effect and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS, sqldb.SQLite), nil
}

func (s *Store) runMigrations() error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Info(msg)
	})
	return err
}

func (s *Store) LoadHabits() ([]models.Habit, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	return sqldb.LoadHabits(context.Background(), s.db, sqldb.SQLite)
}

func (s *Store) SaveHabits(habits []models.Habit) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	return sqldb.SaveHabits(context.Background(), s.db, sqldb.SQLite, habits)
}

func (s *Store) LoadAchievements() ([]models.Achievement, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	return sqldb.LoadAchievements(context.Background(), s.db, sqldb.SQLite)
}

func (s *Store) SaveAchievements(achievements []models.Achievement) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	return sqldb.SaveAchievements(context.Background(), s.db, sqldb.SQLite, achievements)
}

func (s *Store) SaveSnapshot(snap storage.Snapshot) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	return sqldb.SaveSnapshot(context.Background(), s.db, sqldb.SQLite, snap.Habits, snap.Achievements)
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil if the database has not been initialized or loaded.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
