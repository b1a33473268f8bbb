// Package habits is the stateful core: it owns the in-memory habit and
// achievement collections, applies the streak calculator and milestone
// detector on every check-in, and persists through an injected repository.
package habits

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/daykey"
	"github.com/julianstephens/streakr/internal/logger"
	"github.com/julianstephens/streakr/internal/models"
	"github.com/julianstephens/streakr/internal/storage"
	"github.com/julianstephens/streakr/internal/streak"
)

var (
	ErrEmptyName       = errors.New("habit name cannot be empty")
	ErrInvalidCategory = errors.New("invalid habit category")
	ErrNotFound        = errors.New("habit not found")
	ErrDuplicateID     = errors.New("habit id already exists")
	ErrPersistence     = errors.New("changes may not be saved")
)

// Options configures a Store. Zero values fall back to the defaults.
type Options struct {
	Ladder          streak.Ladder
	TrophyThreshold int
	Location        *time.Location
	Clock           func() time.Time
	NewID           func() string
}

// CheckInResult describes what a check-in did.
type CheckInResult struct {
	// Checked is false when the habit was already checked today; nothing changed.
	Checked        bool
	Day            daykey.DayKey
	PreviousStreak int
	Streak         int
	MaxStreak      int
	// Achievement is set when the check-in earned a new milestone.
	Achievement *models.Achievement
	// Promoted is set when the check-in moved the habit into the trophy gallery.
	Promoted bool
}

type Store struct {
	mu sync.Mutex

	repo      storage.Provider
	ladder    streak.Ladder
	threshold int
	loc       *time.Location
	clock     func() time.Time
	newID     func() string

	habits       []models.Habit
	achievements []models.Achievement
	// dirty is set when the last save failed; the next mutation retries it.
	dirty bool
	// stale counts caches recomputed on load that are not saved yet.
	stale int
}

// New loads the current state from repo, which must already be loaded.
func New(repo storage.Provider, opts Options) (*Store, error) {
	s := &Store{
		repo:      repo,
		ladder:    opts.Ladder,
		threshold: opts.TrophyThreshold,
		loc:       opts.Location,
		clock:     opts.Clock,
		newID:     opts.NewID,
	}
	if s.ladder == nil {
		s.ladder = streak.DefaultLadder()
	}
	if err := s.ladder.Validate(); err != nil {
		return nil, err
	}
	if s.threshold <= 0 {
		s.threshold = constants.DefaultTrophyThreshold
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	habits, err := repo.LoadHabits()
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	achievements, err := repo.LoadAchievements()
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	today := daykey.FromTime(s.clock(), s.loc)
	for i := range habits {
		h := &habits[i]
		h.CheckedDays = models.SortDays(h.CheckedDays)
		current, best := h.CurrentStreak, h.MaxStreak
		s.recompute(h, today)
		if h.CurrentStreak != current || h.MaxStreak != best {
			s.stale++
		}
	}
	s.habits = habits
	s.achievements = achievements
	return s, nil
}

// Ladder returns the milestone ladder the store awards against.
func (s *Store) Ladder() streak.Ladder {
	return append(streak.Ladder(nil), s.ladder...)
}

// Location returns the time zone day keys are normalized in.
func (s *Store) Location() *time.Location {
	return s.loc
}

// TrophyThreshold returns the best streak that auto-promotes a habit.
func (s *Store) TrophyThreshold() int {
	return s.threshold
}

// Today returns the current day key in the store's location.
func (s *Store) Today() daykey.DayKey {
	return daykey.FromTime(s.clock(), s.loc)
}

func (s *Store) AddHabit(h models.Habit) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, category, err := validate(h.Name, h.Category)
	if err != nil {
		return models.Habit{}, err
	}

	if h.ID == "" {
		h.ID = s.newID()
	} else if s.find(h.ID) >= 0 {
		return models.Habit{}, fmt.Errorf("%w: %s", ErrDuplicateID, h.ID)
	}

	now := s.clock()
	if h.StartDate.IsZero() {
		h.StartDate = now
	}

	created := models.Habit{
		ID:        h.ID,
		Name:      name,
		Category:  category,
		Comment:   strings.TrimSpace(h.Comment),
		StartDate: h.StartDate,
		StartDay:  daykey.FromTime(h.StartDate, s.loc),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.habits = append(s.habits, created)

	logger.Debug("Habit added", "id", created.ID, "name", created.Name)
	return created.Clone(), s.persist()
}

// UpdateHabit replaces the editable fields of the habit with h.ID. An empty
// Category or a zero StartDate keeps the current one.
func (s *Store) UpdateHabit(h models.Habit) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(h.ID)
	if err != nil {
		return models.Habit{}, err
	}
	if h.Category == "" {
		h.Category = s.habits[i].Category
	}
	name, category, err := validate(h.Name, h.Category)
	if err != nil {
		return models.Habit{}, err
	}

	now := s.clock()
	cur := &s.habits[i]
	cur.Name = name
	cur.Category = category
	cur.Comment = strings.TrimSpace(h.Comment)
	if !h.StartDate.IsZero() && !h.StartDate.Equal(cur.StartDate) {
		cur.StartDate = h.StartDate
		cur.StartDay = daykey.FromTime(h.StartDate, s.loc)
	}
	s.recompute(cur, daykey.FromTime(now, s.loc))
	s.autoPromote(cur)
	cur.UpdatedAt = now

	return cur.Clone(), s.persist()
}

// DeleteHabit removes a habit and every achievement it earned.
func (s *Store) DeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.habits = append(s.habits[:i], s.habits[i+1:]...)

	kept := s.achievements[:0]
	for _, a := range s.achievements {
		if a.HabitID != id {
			kept = append(kept, a)
		}
	}
	s.achievements = kept

	logger.Debug("Habit deleted", "id", id)
	return s.persist()
}

// CheckInToday marks the habit done for the day now falls on. A second
// check-in on the same day is a no-op and returns Checked=false.
func (s *Store) CheckInToday(id string, now time.Time) (CheckInResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return CheckInResult{}, err
	}
	h := &s.habits[i]
	today := daykey.FromTime(now, s.loc)

	last := h.LastCheckedDay
	if last == "" && h.LastCheckedAt != nil {
		last = daykey.FromTime(*h.LastCheckedAt, s.loc)
	}
	if !streak.CanCheckDay(last, today) {
		return CheckInResult{
			Day:            today,
			PreviousStreak: h.CurrentStreak,
			Streak:         h.CurrentStreak,
			MaxStreak:      h.MaxStreak,
		}, nil
	}

	set := streak.NewSet(h.CheckedDays...)
	previous := streak.Compute(set, today, h.StreakFloor())

	if set.Add(today) {
		h.CheckedDays = models.SortDays(append(h.CheckedDays, today))
	}
	// A check-in on the day of a reset starts the new streak.
	if h.StreakFrom != "" && h.StreakFrom.After(today) {
		h.StreakFrom = today
	}
	t := now
	h.LastCheckedAt = &t
	h.LastCheckedDay = today

	h.CurrentStreak = streak.Compute(set, today, h.StreakFloor())
	if h.CurrentStreak > h.MaxStreak {
		h.MaxStreak = h.CurrentStreak
	}
	h.UpdatedAt = now

	res := CheckInResult{
		Checked:        true,
		Day:            today,
		PreviousStreak: previous,
		Streak:         h.CurrentStreak,
		MaxStreak:      h.MaxStreak,
	}

	if m, ok := s.ladder.Detect(previous, h.CurrentStreak); ok && !s.hasAchievement(h.ID, m) {
		a := models.Achievement{
			ID:            s.newID(),
			HabitID:       h.ID,
			Milestone:     m,
			AchievedAt:    now,
			HabitName:     h.Name,
			HabitCategory: h.Category,
		}
		s.achievements = append(s.achievements, a)
		res.Achievement = &a
		logger.Info("Milestone reached", "habit", h.Name, "milestone", m)
	}
	res.Promoted = s.autoPromote(h)

	return res, s.persist()
}

// ResetStreak zeroes the current streak. Check-in history and the best
// streak are kept; days up to and including today stop counting.
func (s *Store) ResetStreak(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return err
	}
	now := s.clock()
	h := &s.habits[i]
	h.CurrentStreak = 0
	h.LastCheckedAt = nil
	h.LastCheckedDay = ""
	h.StreakFrom = daykey.FromTime(now, s.loc).Next()
	h.UpdatedAt = now

	logger.Debug("Streak reset", "id", id)
	return s.persist()
}

func (s *Store) PromoteToTrophy(id string) error {
	return s.setTrophy(id, true)
}

func (s *Store) DemoteFromTrophy(id string) error {
	return s.setTrophy(id, false)
}

func (s *Store) setTrophy(id string, trophy bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return err
	}
	h := &s.habits[i]
	h.IsTrophy = trophy
	if trophy {
		h.TrophyAwarded = true
	}
	h.UpdatedAt = s.clock()
	return s.persist()
}

// Refresh recomputes every cached streak for the day now falls on and
// returns how many changed. Nothing is saved when nothing changed.
func (s *Store) Refresh(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := daykey.FromTime(now, s.loc)
	changed := s.stale
	for i := range s.habits {
		h := &s.habits[i]
		current, best := h.CurrentStreak, h.MaxStreak
		s.recompute(h, today)
		if h.CurrentStreak != current || h.MaxStreak != best {
			h.UpdatedAt = now
			changed++
		}
	}

	if changed == 0 && !s.dirty {
		return 0, nil
	}
	logger.Debug("Streaks refreshed", "day", today, "changed", changed)
	return changed, s.persist()
}

// Flush retries a save that failed earlier.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.persist()
}

// Pending reports whether in-memory changes have not been saved.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) Habits() []models.Habit {
	return s.filter(func(models.Habit) bool { return true })
}

// Active returns habits with a running streak.
func (s *Store) Active() []models.Habit {
	return s.filter(func(h models.Habit) bool { return h.CurrentStreak > 0 })
}

// Trophies returns the habits in the trophy gallery.
func (s *Store) Trophies() []models.Habit {
	return s.filter(func(h models.Habit) bool { return h.IsTrophy })
}

func (s *Store) Habit(id string) (models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.lookup(id)
	if err != nil {
		return models.Habit{}, err
	}
	return s.habits[i].Clone(), nil
}

// Achievements returns every achievement in the order it was earned.
func (s *Store) Achievements() []models.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Achievement{}, s.achievements...)
}

// AchievementsFor returns one habit's achievements by ascending milestone.
func (s *Store) AchievementsFor(id string) []models.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Achievement{}
	for _, a := range s.achievements {
		if a.HabitID == id {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Milestone < out[j].Milestone })
	return out
}

func (s *Store) filter(keep func(models.Habit) bool) []models.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Habit{}
	for _, h := range s.habits {
		if keep(h) {
			out = append(out, h.Clone())
		}
	}
	return out
}

func (s *Store) find(id string) int {
	for i := range s.habits {
		if s.habits[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) lookup(id string) (int, error) {
	i := s.find(id)
	if i < 0 {
		logger.Warn("Habit not found", "id", id)
		return -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return i, nil
}

func (s *Store) hasAchievement(habitID string, milestone int) bool {
	for _, a := range s.achievements {
		if a.HabitID == habitID && a.Milestone == milestone {
			return true
		}
	}
	return false
}

// recompute refreshes the streak cache; maxStreak never decreases.
func (s *Store) recompute(h *models.Habit, today daykey.DayKey) {
	h.CurrentStreak = streak.Compute(streak.NewSet(h.CheckedDays...), today, h.StreakFloor())
	if h.CurrentStreak > h.MaxStreak {
		h.MaxStreak = h.CurrentStreak
	}
}

// autoPromote moves h into the trophy gallery the first time its best
// streak reaches the threshold and reports whether it did.
func (s *Store) autoPromote(h *models.Habit) bool {
	if h.TrophyAwarded || h.MaxStreak < s.threshold {
		return false
	}
	h.IsTrophy = true
	h.TrophyAwarded = true
	logger.Info("Habit promoted to trophy", "habit", h.Name, "max_streak", h.MaxStreak)
	return true
}

func (s *Store) persist() error {
	snap := storage.Snapshot{
		Habits:       make([]models.Habit, len(s.habits)),
		Achievements: append([]models.Achievement{}, s.achievements...),
	}
	for i, h := range s.habits {
		snap.Habits[i] = h.Clone()
	}

	if err := s.repo.SaveSnapshot(snap); err != nil {
		s.dirty = true
		logger.Error("Failed to save habits", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.dirty = false
	s.stale = 0
	return nil
}

func validate(name string, category models.Category) (string, models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", ErrEmptyName
	}
	if category == "" {
		category = models.CategoryOther
	}
	if !category.Valid() {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	return name, category, nil
}
