package daykey

import (
	"testing"
	"time"
)

func TestFromTime(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	// 2024-03-10 23:30 UTC is already the 11th in Tokyo and still the 10th in New York.
	instant := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		loc  *time.Location
		want DayKey
	}{
		{name: "utc", loc: time.UTC, want: "2024-03-10"},
		{name: "tokyo", loc: tokyo, want: "2024-03-11"},
		{name: "new york", loc: ny, want: "2024-03-10"},
		{name: "nil keeps instant location", loc: nil, want: "2024-03-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromTime(instant, tt.loc); got != tt.want {
				t.Errorf("FromTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromTimeSameDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	morning := time.Date(2024, 6, 1, 0, 0, 1, 0, loc)
	night := time.Date(2024, 6, 1, 23, 59, 59, 0, loc)
	next := time.Date(2024, 6, 2, 0, 0, 0, 0, loc)

	if FromTime(morning, loc) != FromTime(night, loc) {
		t.Errorf("instants on the same local day normalized differently")
	}
	if FromTime(night, loc) == FromTime(next, loc) {
		t.Errorf("instants on different local days collided")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "2024-01-31", wantErr: false},
		{input: "2024-02-30", wantErr: true},
		{input: "2024/01/31", wantErr: true},
		{input: "", wantErr: true},
		{input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	d := MustParse("2024-03-01")

	if got := d.Prev(); got != "2024-02-29" {
		t.Errorf("Prev() = %q, want leap day", got)
	}
	if got := d.Next(); got != "2024-03-02" {
		t.Errorf("Next() = %q, want 2024-03-02", got)
	}
	if got := MustParse("2023-12-31").Next(); got != "2024-01-01" {
		t.Errorf("Next() across year = %q", got)
	}
	if got := d.AddDays(-366); got != "2023-03-01" {
		t.Errorf("AddDays(-366) = %q, want 2023-03-01", got)
	}
	if !d.Prev().Before(d) || !d.Next().After(d) {
		t.Errorf("ordering helpers disagree with arithmetic")
	}
}

func TestArithmeticAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	// Clocks spring forward on 2024-03-10 in New York; that day is 23h long.
	d := FromTime(time.Date(2024, 3, 10, 12, 0, 0, 0, ny), ny)
	if got := d.Next(); got != "2024-03-11" {
		t.Errorf("Next() across DST = %q", got)
	}
	if got := d.Prev(); got != "2024-03-09" {
		t.Errorf("Prev() across DST = %q", got)
	}
	if got := d.Time(ny); got.Hour() != 0 || got.Day() != 10 {
		t.Errorf("Time() = %v, want midnight on the 10th", got)
	}
}

func TestValid(t *testing.T) {
	if DayKey("").Valid() {
		t.Error("empty key should be invalid")
	}
	if !DayKey("2024-12-25").Valid() {
		t.Error("2024-12-25 should be valid")
	}
	if DayKey("2024-13-01").Valid() {
		t.Error("month 13 should be invalid")
	}
}

func TestLoadLocation(t *testing.T) {
	for _, name := range []string{"", "Local"} {
		loc, err := LoadLocation(name)
		if err != nil {
			t.Fatalf("LoadLocation(%q) error: %v", name, err)
		}
		if loc != time.Local {
			t.Errorf("LoadLocation(%q) = %v, want time.Local", name, loc)
		}
	}

	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("LoadLocation should reject unknown zones")
	}
}
