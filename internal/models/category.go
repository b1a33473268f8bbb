package models

import (
	"fmt"
	"strings"
)

// Category groups habits for display. The set is closed.
type Category string

const (
	CategoryFood       Category = "food"
	CategoryTechnology Category = "technology"
	CategoryHealth     Category = "health"
	CategorySport      Category = "sport"
	CategoryOther      Category = "other"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryFood, CategoryTechnology, CategoryHealth, CategorySport, CategoryOther}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Label returns the display name for c.
func (c Category) Label() string {
	if c == "" {
		return "Other"
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// ParseCategory parses a category name case-insensitively. Empty input means CategoryOther.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q (expected one of: food, technology, health, sport, other)", s)
	}
	return c, nil
}
