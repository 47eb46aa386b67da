package depot

import (
	"errors"
	"slices"
	"testing"
)

func mustCalendar(t *testing.T, country string) *Calendar {
	t.Helper()
	c, err := NewCalendar(country)
	if err != nil {
		t.Fatalf("NewCalendar(%q) unexpected error: %v", country, err)
	}
	return c
}

func TestCalendar_IsTradingDay(t *testing.T) {
	de := mustCalendar(t, "DE")
	none := mustCalendar(t, "")
	tests := []struct {
		day      string
		de, none bool
	}{
		{"2025-04-17", true, true},   // Thursday
		{"2025-04-18", false, true},  // Good Friday
		{"2025-04-19", false, false}, // Saturday
		{"2025-04-20", false, false}, // Sunday
		{"2025-04-21", false, true},  // Easter Monday
		{"2025-05-01", false, true},  // Labour day
		{"2025-10-03", false, true},  // German Unity day
		{"2025-12-25", false, true},
		{"2025-12-26", false, true},
		{"2025-12-29", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			d := MustParse(tt.day)
			if got := de.IsTradingDay(d); got != tt.de {
				t.Errorf("de.IsTradingDay(%v) = %v, want %v", d, got, tt.de)
			}
			if got := none.IsTradingDay(d); got != tt.none {
				t.Errorf("none.IsTradingDay(%v) = %v, want %v", d, got, tt.none)
			}
		})
	}
}

func TestNewCalendar_Unknown(t *testing.T) {
	if _, err := NewCalendar("atlantis"); !errors.Is(err, ErrValidation) {
		t.Errorf("NewCalendar() error = %v, want ErrValidation", err)
	}
}

func TestCalendar_TradingDays(t *testing.T) {
	de := mustCalendar(t, "de")
	got := de.TradingDays(NewRange(MustParse("2025-04-16"), MustParse("2025-04-23")))
	want := []Date{MustParse("2025-04-16"), MustParse("2025-04-17"), MustParse("2025-04-22"), MustParse("2025-04-23")}
	if !slices.Equal(got, want) {
		t.Errorf("TradingDays() = %v, want %v", got, want)
	}
}

func TestCalendar_LastTradingDay(t *testing.T) {
	de := mustCalendar(t, "de")
	tests := []struct {
		today, want string
	}{
		{"2025-04-16", "2025-04-15"}, // Wednesday
		{"2025-04-14", "2025-04-11"}, // Monday, back to Friday
		{"2025-04-22", "2025-04-17"}, // Tuesday after Easter
		{"2025-10-06", "2025-10-02"}, // Monday after German Unity day on Friday
	}
	for _, tt := range tests {
		if got := de.LastTradingDay(MustParse(tt.today)); got != MustParse(tt.want) {
			t.Errorf("LastTradingDay(%s) = %v, want %s", tt.today, got, tt.want)
		}
	}
}

func TestCalendar_LastTradingDayOfPreviousMonth(t *testing.T) {
	de := mustCalendar(t, "de")
	tests := []struct {
		today, want string
	}{
		{"2025-08-15", "2025-07-31"}, // Thursday
		{"2025-09-10", "2025-08-29"}, // 31st is a Sunday
		{"2026-01-05", "2025-12-31"}, // new year's eve is not a public holiday
		{"2025-05-02", "2025-04-30"},
	}
	for _, tt := range tests {
		got, ok := de.LastTradingDayOfPreviousMonth(MustParse(tt.today))
		if !ok || got != MustParse(tt.want) {
			t.Errorf("LastTradingDayOfPreviousMonth(%s) = %v, %v, want %s", tt.today, got, ok, tt.want)
		}
	}
}
