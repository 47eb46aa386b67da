package depot

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := NewDate(2025, 7, 31)
	d2 := NewDate(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	today := Today()

	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2025-01-15", NewDate(2025, time.January, 15), false},
		{"2025-7-1", NewDate(2025, time.July, 1), false},
		{"2025-01-15 00:00:00", NewDate(2025, time.January, 15), false},
		{"15.01.2025", NewDate(2025, time.January, 15), false},
		{"invalid-date", Date{}, true},
		{"32.01.2025", Date{}, true},

		{"-1d", today.Add(-1), false},
		{"+1d", today.Add(1), false},
		{"1d", Date{}, true},
		{"-0d", today, false},
		{"0d", today, false},
		{"-2w", today.Add(-14), false},
		{"+1m", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.err {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.err)
				return
			}
			if !tt.err && got != tt.expected {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDate_Calendar(t *testing.T) {
	tests := []struct {
		name string
		got  Date
		want Date
	}{
		{"normalized overflow", NewDate(2025, 2, 30), NewDate(2025, 3, 2)},
		{"end of previous month", MustParse("2025-03-15").EndOfPreviousMonth(), NewDate(2025, 2, 28)},
		{"end of previous year", MustParse("2025-01-01").EndOfPreviousMonth(), NewDate(2024, 12, 31)},
		{"leap year", MustParse("2024-03-01").EndOfPreviousMonth(), NewDate(2024, 2, 29)},
		{"add across month", MustParse("2025-01-30").Add(3), NewDate(2025, 2, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestDate_Sub(t *testing.T) {
	if got := MustParse("2025-03-02").Sub(MustParse("2025-02-27")); got != 3 {
		t.Errorf("Sub() = %d, want 3", got)
	}
	if got := MustParse("2025-02-27").Sub(MustParse("2025-03-02")); got != -3 {
		t.Errorf("Sub() = %d, want -3", got)
	}
}

func TestDate_German(t *testing.T) {
	if got := NewDate(2025, 8, 1).German(); got != "01.08.2025" {
		t.Errorf("German() = %q, want %q", got, "01.08.2025")
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected Date
		wantErr  bool
	}{
		{
			name:     "Zero Date from empty string",
			json:     `""`,
			expected: Date{},
		},
		{
			name:     "Non-Zero Date",
			json:     `"2024-05-21"`,
			expected: NewDate(2024, 5, 21),
		},
		{
			name:    "Invalid Date",
			json:    `"not-a-date"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.json), &d)
			if (err != nil) != tt.wantErr {
				t.Errorf("json.Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && d != tt.expected {
				t.Errorf("json.Unmarshal() got = %v, want %v", d, tt.expected)
			}
		})
	}
}

func TestDate_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		expected string
	}{
		{"Zero Date", Date{}, `""`},
		{"Non-Zero Date", NewDate(2024, 5, 21), `"2024-05-21"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.date)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("json.Marshal() = %s, want %s", got, tt.expected)
			}
		})
	}
}
