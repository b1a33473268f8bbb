package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/streakr/internal/cli"
	"github.com/julianstephens/streakr/internal/logger"
	"github.com/julianstephens/streakr/internal/tui"
)

type TuiCmd struct{}

// Run holds the writer lock for the whole session.
func (c *TuiCmd) Run(ctx *cli.Context) error {
	return ctx.WithWriteLock(func() error {
		if err := ctx.Load(); err != nil {
			return err
		}

		// Perform automatic backup on TUI startup (after successful load)
		ctx.PerformAutomaticBackup()

		p := tea.NewProgram(tui.NewModel(ctx.Habits, ctx.PerformAutomaticBackup), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("alas, there's been an error: %w", err)
		}

		if ctx.Habits.Pending() {
			if err := ctx.Habits.Flush(); err != nil {
				logger.Error("Unsaved changes could not be written", "error", err)
				return err
			}
		}
		return nil
	})
}
