package models

import (
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/streakr/internal/daykey"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{input: "food", want: CategoryFood},
		{input: "  Health ", want: CategoryHealth},
		{input: "TECHNOLOGY", want: CategoryTechnology},
		{input: "", want: CategoryOther},
		{input: "gardening", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategorySport.Label(); got != "Sport" {
		t.Errorf("Label() = %q, want Sport", got)
	}
	if got := Category("").Label(); got != "Other" {
		t.Errorf("empty Label() = %q, want Other", got)
	}
}

func TestSortDays(t *testing.T) {
	in := []daykey.DayKey{"2024-01-03", "2024-01-01", "2024-01-03", "2024-01-02"}
	want := []daykey.DayKey{"2024-01-01", "2024-01-02", "2024-01-03"}

	got := SortDays(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortDays() = %v, want %v", got, want)
	}
	if in[0] != "2024-01-03" {
		t.Error("SortDays() modified its input")
	}
	if got := SortDays(nil); got != nil {
		t.Errorf("SortDays(nil) = %v, want nil", got)
	}
}

func TestStreakFloor(t *testing.T) {
	h := Habit{StartDay: "2024-01-01"}
	if got := h.StreakFloor(); got != "2024-01-01" {
		t.Errorf("StreakFloor() = %q, want start day", got)
	}

	h.StreakFrom = "2024-02-01"
	if got := h.StreakFloor(); got != "2024-02-01" {
		t.Errorf("StreakFloor() = %q, want reset day", got)
	}

	h.StartDay = "2024-03-01"
	if got := h.StreakFloor(); got != "2024-03-01" {
		t.Errorf("StreakFloor() = %q, want later start day", got)
	}
}

func TestClone(t *testing.T) {
	now := time.Now()
	h := Habit{
		ID:            "h1",
		CheckedDays:   []daykey.DayKey{"2024-01-01"},
		LastCheckedAt: &now,
	}

	c := h.Clone()
	c.CheckedDays[0] = "1999-01-01"
	*c.LastCheckedAt = now.Add(time.Hour)

	if h.CheckedDays[0] != "2024-01-01" {
		t.Error("Clone() shares CheckedDays with the original")
	}
	if !h.LastCheckedAt.Equal(now) {
		t.Error("Clone() shares LastCheckedAt with the original")
	}
	if !c.HasChecked("1999-01-01") || h.HasChecked("1999-01-01") {
		t.Error("HasChecked() disagrees with CheckedDays")
	}
}
