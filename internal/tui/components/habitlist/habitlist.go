package habitlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/streakr/internal/models"
)

type AddHabitMsg struct{}

type CheckInMsg struct {
	ID string
}

type ResetStreakMsg struct {
	ID string
}

type ToggleTrophyMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID   string
	Name string
}

type Item struct {
	Habit models.Habit
	// CheckedToday marks habits already checked for the current day.
	CheckedToday bool
}

func (i Item) Title() string {
	title := i.Habit.Name
	if i.Habit.IsTrophy {
		title = "🏆 " + title
	}
	if i.CheckedToday {
		title += " ✓"
	}
	return title
}

func (i Item) Description() string {
	desc := fmt.Sprintf("🔥 %d | best %d | %s", i.Habit.CurrentStreak, i.Habit.MaxStreak, i.Habit.Category.Label())
	if i.Habit.Comment != "" {
		desc += " | " + i.Habit.Comment
	}
	return desc
}

func (i Item) FilterValue() string { return i.Habit.Name }

type KeyMap struct {
	Add     key.Binding
	CheckIn key.Binding
	Reset   key.Binding
	Trophy  key.Binding
	Delete  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		CheckIn: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "check in"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset streak"),
		),
		Trophy: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle trophy"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list  list.Model
	keys  KeyMap
	empty string
}

// New builds a habit list. empty is shown when there are no habits.
func New(title, empty string, width, height int) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowTitle(false)
	l.SetShowHelp(false) // We handle help globally in the main model

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.CheckIn, keys.Reset, keys.Trophy, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.CheckIn, keys.Reset, keys.Trophy, keys.Delete}
	}

	return Model{list: l, keys: keys, empty: empty}
}

func (m *Model) SetItems(items []Item) {
	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = it
	}
	m.list.SetItems(listItems)
}

// Selected returns the highlighted habit.
func (m Model) Selected() (models.Habit, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Habit, ok
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if key.Matches(msg, m.keys.Add) {
			return m, func() tea.Msg { return AddHabitMsg{} }
		}
		i, ok := m.list.SelectedItem().(Item)
		if !ok {
			break
		}
		switch {
		case key.Matches(msg, m.keys.CheckIn):
			return m, func() tea.Msg { return CheckInMsg{ID: i.Habit.ID} }
		case key.Matches(msg, m.keys.Reset):
			return m, func() tea.Msg { return ResetStreakMsg{ID: i.Habit.ID} }
		case key.Matches(msg, m.keys.Trophy):
			return m, func() tea.Msg { return ToggleTrophyMsg{ID: i.Habit.ID} }
		case key.Matches(msg, m.keys.Delete):
			return m, func() tea.Msg { return DeleteHabitMsg{ID: i.Habit.ID, Name: i.Habit.Name} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return m.empty
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
