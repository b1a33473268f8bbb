package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/streakr/internal/backup"
	"github.com/julianstephens/streakr/internal/config"
	"github.com/julianstephens/streakr/internal/constants"
	clierrors "github.com/julianstephens/streakr/internal/errors"
	"github.com/julianstephens/streakr/internal/habits"
	"github.com/julianstephens/streakr/internal/keyring"
	"github.com/julianstephens/streakr/internal/lockfile"
	"github.com/julianstephens/streakr/internal/logger"
	"github.com/julianstephens/streakr/internal/models"
	"github.com/julianstephens/streakr/internal/storage"
	"github.com/julianstephens/streakr/internal/storage/postgres"
	"github.com/julianstephens/streakr/internal/storage/sqlite"
)

// PostgresKeyword selects PostgreSQL with the connection string taken from
// the environment or the OS keyring.
const PostgresKeyword = "postgres"

var ErrNoConnectionString = errors.New("no PostgreSQL connection string found, run 'streakr config set-connection' or set " + keyring.ConnectionEnvVar)

type Context struct {
	Config *config.Config
	Store  storage.Provider
	// Habits is nil until Load succeeds.
	Habits *habits.Store

	// Clock is the time source for the habit store; nil means time.Now.
	Clock func() time.Time
}

// NewContext opens (but does not load) the provider named by cfg.Storage.
func NewContext(cfg *config.Config) (*Context, error) {
	store, err := OpenProvider(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return &Context{Config: cfg, Store: store}, nil
}

// OpenProvider picks the storage backend for target: PostgreSQL for a
// postgres:// URL or the bare "postgres" keyword, a JSON file for *.json and
// SQLite for anything else.
func OpenProvider(target string) (storage.Provider, error) {
	target = strings.TrimSpace(target)
	switch {
	case strings.EqualFold(target, PostgresKeyword) || strings.EqualFold(target, "postgresql"):
		connStr, ok, err := keyring.ResolveConnectionString()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNoConnectionString
		}
		// Secrets held in the keyring or environment may carry a password.
		return postgres.New(connStr), nil
	case IsPostgres(target):
		if _, err := postgres.ValidateConnString(target); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w: store the full string with 'streakr config set-connection' or set %s instead", err, keyring.ConnectionEnvVar)
			}
			return nil, err
		}
		return postgres.New(target), nil
	case target == "":
		return nil, errors.New("no storage configured")
	case strings.EqualFold(filepath.Ext(target), ".json"):
		return storage.NewJSONStore(target), nil
	default:
		return sqlite.NewStore(target), nil
	}
}

// IsPostgres reports whether target is a PostgreSQL connection URL.
func IsPostgres(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// Load loads the provider and builds the habit store from it.
func (c *Context) Load() error {
	if c.Habits != nil {
		return nil
	}
	if err := c.Store.Load(); err != nil {
		return err
	}

	opts := habits.Options{
		TrophyThreshold: c.Config.TrophyThreshold,
		Clock:           c.Clock,
	}
	var err error
	if opts.Ladder, err = c.Config.Ladder(); err != nil {
		return err
	}
	if opts.Location, err = c.Config.Location(); err != nil {
		return err
	}

	c.Habits, err = habits.New(c.Store, opts)
	return err
}

// Reload rebuilds the habit store from what is persisted now.
func (c *Context) Reload() error {
	c.Habits = nil
	return c.Load()
}

// Close releases the provider.
func (c *Context) Close() error {
	c.Habits = nil
	return c.Store.Close()
}

// Now returns the current time from the context clock.
func (c *Context) Now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// WithWriteLock runs fn while holding the writer lock in the config directory.
func (c *Context) WithWriteLock(fn func() error) error {
	lock, err := lockfile.Acquire(c.Config.ConfigDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release lockfile", "path", lock.Path(), "error", err)
		}
	}()
	return fn()
}

// Mutate loads the store and runs fn under the writer lock. A failed save
// is retried once more before the lock is released; if that also fails the
// change stays applied in memory and is reported as a warning.
func (c *Context) Mutate(fn func(*habits.Store) error) error {
	return c.WithWriteLock(func() error {
		if err := c.Load(); err != nil {
			return err
		}
		err := fn(c.Habits)
		if !errors.Is(err, habits.ErrPersistence) {
			return err
		}
		if flushErr := c.Habits.Flush(); flushErr == nil {
			return nil
		}
		fmt.Fprintln(os.Stderr, clierrors.Warning(err))
		return nil
	})
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	path := c.Store.GetConfigPath()
	if !backup.Supported(path) {
		return
	}
	mgr := backup.NewManager(path)
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// FindHabit resolves ref as a habit id, an id prefix or a case-insensitive
// name. Ambiguous references are an error.
func (c *Context) FindHabit(ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	all := c.Habits.Habits()
	for _, h := range all {
		if h.ID == ref {
			return h, nil
		}
	}

	var matches []models.Habit
	for _, h := range all {
		if strings.EqualFold(h.Name, ref) {
			matches = append(matches, h)
		}
	}
	if len(matches) == 0 && len(ref) >= 4 {
		for _, h := range all {
			if strings.HasPrefix(h.ID, ref) {
				matches = append(matches, h)
			}
		}
	}

	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("%w: %q", habits.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%q matches %d habits, use the id instead", ref, len(matches))
	}
}

// ParseDate parses a YYYY-MM-DD date as midnight in the configured location.
func (c *Context) ParseDate(s string) (time.Time, error) {
	loc, err := c.Config.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(constants.DateFormat, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return t, nil
}
