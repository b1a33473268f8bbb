package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakr/internal/constants"
	"github.com/julianstephens/streakr/internal/models"
)

// HabitFormModel holds the answers of the guided add-habit form.
type HabitFormModel struct {
	Name      string
	Category  models.Category
	Comment   string
	StartDate string
}

// NewHabitForm builds the guided form: name, category, comment, start date.
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	if fm.Category == "" {
		fm.Category = models.CategoryOther
	}

	options := make([]huh.Option[models.Category], 0, len(models.Categories()))
	for _, c := range models.Categories() {
		options = append(options, huh.NewOption(c.Label(), c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[models.Category]().
				Title("Category").
				Options(options...).
				Value(&fm.Category),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Comment").
				Description("Optional").
				Value(&fm.Comment),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Start date (YYYY-MM-DD)").
				Description("Leave empty to start today").
				Value(&fm.StartDate).
				Validate(validateStartDate),
		),
	).WithTheme(huh.ThemeDracula())
}

func validateStartDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.Parse(constants.DateFormat, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("expected YYYY-MM-DD")
	}
	return nil
}

// Habit converts the answers into a habit. An empty start date is left zero
// so the store starts it now.
func (fm *HabitFormModel) Habit(loc *time.Location) (models.Habit, error) {
	h := models.Habit{
		Name:     strings.TrimSpace(fm.Name),
		Category: fm.Category,
		Comment:  strings.TrimSpace(fm.Comment),
	}
	if s := strings.TrimSpace(fm.StartDate); s != "" {
		start, err := time.ParseInLocation(constants.DateFormat, s, loc)
		if err != nil {
			return models.Habit{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", s)
		}
		h.StartDate = start
	}
	return h, nil
}
