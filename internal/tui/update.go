package tui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakr/internal/daykey"
	clierrors "github.com/julianstephens/streakr/internal/errors"
	"github.com/julianstephens/streakr/internal/habits"
	"github.com/julianstephens/streakr/internal/tui/components/habitlist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.setSizes()

	case rolloverMsg:
		if daykey.FromTime(time.Time(msg), m.store.Location()) != m.day {
			_, err := m.store.Refresh(time.Time(msg))
			m.handleErr(err)
			m.refresh()
		}
		return m, tickRollover()
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case habitlist.AddHabitMsg:
		m.habitForm = &HabitFormModel{}
		m.form = NewHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case habitlist.CheckInMsg:
		res, err := m.store.CheckInToday(msg.ID, m.now())
		m.status = checkInStatus(res)
		m.handleErr(err)
		m.refresh()
		return m, nil

	case habitlist.ResetStreakMsg:
		if err := m.store.ResetStreak(msg.ID); m.handleErr(err) {
			m.status = "Streak reset"
		}
		m.refresh()
		return m, nil

	case habitlist.ToggleTrophyMsg:
		m.toggleTrophy(msg.ID)
		m.refresh()
		return m, nil

	case habitlist.DeleteHabitMsg:
		m.habitToDeleteID = msg.ID
		m.habitToDeleteName = msg.Name
		m.state = StateConfirmDelete
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case StateHabits:
		m.habitList, cmd = m.habitList.Update(msg)
	case StateTrophies:
		m.trophyList, cmd = m.trophyList.Update(msg)
	case StateAchievements:
		m.achievementsModel, cmd = m.achievementsModel.Update(msg)
	}
	return m, cmd
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		h, err := m.habitForm.Habit(m.store.Location())
		if err == nil {
			h, err = m.store.AddHabit(h)
			if err == nil || errors.Is(err, habits.ErrPersistence) {
				m.status = fmt.Sprintf("Added habit: %s", h.Name)
			}
		}
		m.handleErr(err)
		m.refresh()
		m.state = StateHabits
	case huh.StateAborted:
		m.state = StateHabits
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		if m.habitToDeleteID != "" {
			if m.beforeDelete != nil {
				m.beforeDelete()
			}
			if err := m.store.DeleteHabit(m.habitToDeleteID); m.handleErr(err) {
				m.status = fmt.Sprintf("Deleted habit: %s", m.habitToDeleteName)
			}
			m.refresh()
		}
		m.habitToDeleteID, m.habitToDeleteName = "", ""
		m.state = StateHabits
	case key.Matches(keyMsg, m.keys.Cancel):
		m.habitToDeleteID, m.habitToDeleteName = "", ""
		m.state = StateHabits
	}
	return m, nil
}

func (m *Model) toggleTrophy(id string) {
	h, err := m.store.Habit(id)
	if !m.handleErr(err) {
		return
	}
	if h.IsTrophy {
		err = m.store.DemoteFromTrophy(id)
		m.status = fmt.Sprintf("%s removed from trophies", h.Name)
	} else {
		err = m.store.PromoteToTrophy(id)
		m.status = fmt.Sprintf("🏆 %s added to trophies", h.Name)
	}
	m.handleErr(err)
}

// handleErr records err for display and reports whether the operation
// took effect. A persistence failure still took effect in memory.
func (m *Model) handleErr(err error) bool {
	m.warning = ""
	if err == nil {
		return true
	}
	if errors.Is(err, habits.ErrPersistence) {
		m.warning = clierrors.Warning(err)
		return true
	}
	m.warning = clierrors.Format(err)
	m.status = ""
	return false
}

func checkInStatus(res habits.CheckInResult) string {
	if !res.Checked {
		return "Already checked in today"
	}
	status := fmt.Sprintf("🔥 Streak: %d (best %d)", res.Streak, res.MaxStreak)
	if res.Achievement != nil {
		status += fmt.Sprintf(" | 🏅 %d-day milestone reached!", res.Achievement.Milestone)
	}
	if res.Promoted {
		status += " | 🏆 moved to trophies"
	}
	return status
}
