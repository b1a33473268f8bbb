package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/streakr/internal/models"
)

const jsonStoreVersion = 1

type document struct {
	Version      int                  `json:"version"`
	Habits       []models.Habit       `json:"habits"`
	Achievements []models.Achievement `json:"achievements"`
}

// JSONStore keeps the whole state in a single JSON document.
type JSONStore struct {
	path string
	doc  *document
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("%w at %s", ErrAlreadyInitialized, s.path)
	}

	s.doc = &document{
		Version:      jsonStoreVersion,
		Habits:       []models.Habit{},
		Achievements: []models.Achievement{},
	}
	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotInitialized
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > jsonStoreVersion {
		return fmt.Errorf("storage version (%d) is newer than supported version (%d) - please upgrade the application", doc.Version, jsonStoreVersion)
	}
	if doc.Habits == nil {
		doc.Habits = []models.Habit{}
	}
	if doc.Achievements == nil {
		doc.Achievements = []models.Achievement{}
	}

	s.doc = doc
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save writes to a temp file and renames it over the document so a crash
// mid-write never leaves a truncated file behind.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) LoadHabits() ([]models.Habit, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	habits := make([]models.Habit, len(s.doc.Habits))
	for i, h := range s.doc.Habits {
		habits[i] = h.Clone()
	}
	return habits, nil
}

func (s *JSONStore) SaveHabits(habits []models.Habit) error {
	return s.SaveSnapshot(Snapshot{Habits: habits, Achievements: s.achievements()})
}

func (s *JSONStore) LoadAchievements() ([]models.Achievement, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	return append([]models.Achievement{}, s.doc.Achievements...), nil
}

func (s *JSONStore) SaveAchievements(achievements []models.Achievement) error {
	return s.SaveSnapshot(Snapshot{Habits: s.habits(), Achievements: achievements})
}

func (s *JSONStore) SaveSnapshot(snap Snapshot) error {
	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}

	prev := s.doc
	next := &document{
		Version:      jsonStoreVersion,
		Habits:       make([]models.Habit, len(snap.Habits)),
		Achievements: append([]models.Achievement{}, snap.Achievements...),
	}
	for i, h := range snap.Habits {
		h = h.Clone()
		h.CheckedDays = models.SortDays(h.CheckedDays)
		next.Habits[i] = h
	}

	s.doc = next
	if err := s.save(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

func (s *JSONStore) habits() []models.Habit {
	if s.doc == nil {
		return nil
	}
	return s.doc.Habits
}

func (s *JSONStore) achievements() []models.Achievement {
	if s.doc == nil {
		return nil
	}
	return s.doc.Achievements
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}
