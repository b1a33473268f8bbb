package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakr/internal/daykey"
	"github.com/julianstephens/streakr/internal/habits"
	"github.com/julianstephens/streakr/internal/tui/components/achievements"
	"github.com/julianstephens/streakr/internal/tui/components/habitlist"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateAchievements
	StateTrophies
	StateAddHabit
	StateConfirmDelete
)

// tabCount is the number of states reachable with tab.
const tabCount = 3

// rolloverInterval is how often the dashboard checks for a new day.
const rolloverInterval = time.Minute

type rolloverMsg time.Time

type Model struct {
	store             *habits.Store
	state             SessionState
	keys              KeyMap
	listKeys          habitlist.KeyMap
	help              help.Model
	habitList         habitlist.Model
	trophyList        habitlist.Model
	achievementsModel achievements.Model
	form              *huh.Form
	habitForm         *HabitFormModel
	habitToDeleteID   string
	habitToDeleteName string
	// beforeDelete runs before a confirmed delete (automatic backup).
	beforeDelete func()
	now          func() time.Time
	day          daykey.DayKey
	status       string
	warning      string
	quitting     bool
	width        int
	height       int
}

// NewModel builds the dashboard over store. beforeDelete may be nil.
func NewModel(store *habits.Store, beforeDelete func()) Model {
	m := Model{
		store:             store,
		state:             StateHabits,
		keys:              DefaultKeyMap(),
		listKeys:          habitlist.DefaultKeyMap(),
		help:              help.New(),
		habitList:         habitlist.New("Habits", "\n  No habits yet.\n  Press 'a' to add one.", 0, 0),
		trophyList:        habitlist.New("Trophies", "\n  No trophies yet.\n  Reach a long streak or press 't' on a habit.", 0, 0),
		achievementsModel: achievements.New(0, 0),
		beforeDelete:      beforeDelete,
		now:               time.Now,
	}
	m.refresh()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateHabits:
		keys = append(keys, m.listKeys.Add, m.listKeys.CheckIn, m.listKeys.Reset, m.listKeys.Trophy, m.listKeys.Delete)
	case StateTrophies:
		keys = append(keys, m.listKeys.CheckIn, m.listKeys.Trophy)
	case StateConfirmDelete:
		keys = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case StateHabits, StateTrophies:
		actions = []key.Binding{m.listKeys.Add, m.listKeys.CheckIn, m.listKeys.Reset, m.listKeys.Trophy, m.listKeys.Delete}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tickRollover()
}

func tickRollover() tea.Cmd {
	return tea.Tick(rolloverInterval, func(t time.Time) tea.Msg { return rolloverMsg(t) })
}

// refresh reloads every view from the store.
func (m *Model) refresh() {
	m.day = m.store.Today()

	var all, trophies []habitlist.Item
	for _, h := range m.store.Habits() {
		item := habitlist.Item{Habit: h, CheckedToday: h.LastCheckedDay == m.day}
		all = append(all, item)
		if h.IsTrophy {
			trophies = append(trophies, item)
		}
	}
	m.habitList.SetItems(all)
	m.trophyList.SetItems(trophies)
	m.achievementsModel.SetAchievements(m.store.Achievements())
}

func (m *Model) setSizes() {
	// Tabs, status line and help.
	h := m.height - 6
	if h < 0 {
		h = 0
	}
	w := m.width - 4
	if w < 0 {
		w = 0
	}
	m.habitList.SetSize(w, h)
	m.trophyList.SetSize(w, h)
	m.achievementsModel.SetSize(w, h)
}
