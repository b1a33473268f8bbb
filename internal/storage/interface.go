package storage

import (
	"errors"

	"github.com/julianstephens/streakr/internal/models"
)

var (
	ErrNotInitialized     = errors.New("storage not initialized, run 'streakr init' first")
	ErrAlreadyInitialized = errors.New("storage already initialized")
)

// Snapshot is the full persisted state: every habit with its check-ins and
// every achievement ever earned.
type Snapshot struct {
	Habits       []models.Habit
	Achievements []models.Achievement
}

// Provider is the repository behind the habit store. Saves replace the whole
// collection; SaveSnapshot replaces both collections atomically.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Habits
	LoadHabits() ([]models.Habit, error)
	SaveHabits([]models.Habit) error

	// Achievements
	LoadAchievements() ([]models.Achievement, error)
	SaveAchievements([]models.Achievement) error

	SaveSnapshot(Snapshot) error

	// Utils
	GetConfigPath() string
}
