package achievements

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/models"
)

var (
	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(12)

	milestoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true).
			Width(16)

	habitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type Model struct {
	viewport     viewport.Model
	Achievements []models.Achievement
	width        int
	height       int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.Achievements) == 0 {
		return "\n  No achievements yet.\n  Keep a streak going to earn your first milestone."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

// SetAchievements replaces the content, newest first.
func (m *Model) SetAchievements(achievements []models.Achievement) {
	sorted := append([]models.Achievement(nil), achievements...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AchievedAt.After(sorted[j].AchievedAt)
	})
	m.Achievements = sorted
	m.Render()
}

func (m *Model) Render() {
	var b strings.Builder
	for _, a := range m.Achievements {
		line := fmt.Sprintf("%s %s %s %s\n",
			dateStyle.Render(a.AchievedAt.Format(constants.DateFormat)),
			milestoneStyle.Render(fmt.Sprintf("%d-day streak", a.Milestone)),
			habitStyle.Render(a.HabitName),
			categoryStyle.Render(a.HabitCategory.Label()),
		)
		b.WriteString(line)
	}
	m.viewport.SetContent(b.String())
}
