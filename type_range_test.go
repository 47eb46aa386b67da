package depot

import (
	"slices"
	"testing"
)

func TestRange_Days(t *testing.T) {
	tests := []struct {
		name     string
		r        Range
		expected []Date
	}{
		{
			name:     "three days",
			r:        NewRange(MustParse("2024-02-28"), MustParse("2024-03-01")),
			expected: []Date{MustParse("2024-02-28"), MustParse("2024-02-29"), MustParse("2024-03-01")},
		},
		{
			name:     "single day",
			r:        NewRange(MustParse("2024-01-01"), MustParse("2024-01-01")),
			expected: []Date{MustParse("2024-01-01")},
		},
		{
			name:     "empty",
			r:        Range{From: MustParse("2024-01-02"), To: MustParse("2024-01-01")},
			expected: nil,
		},
		{
			name:     "zero",
			r:        Range{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(tt.r.Days())
			if !slices.Equal(got, tt.expected) {
				t.Errorf("Range.Days() = %v, want %v", got, tt.expected)
			}
			if tt.r.Len() != len(tt.expected) {
				t.Errorf("Range.Len() = %d, want %d", tt.r.Len(), len(tt.expected))
			}
		})
	}
}

func TestRange_Index(t *testing.T) {
	r := NewRange(MustParse("2024-01-01"), MustParse("2024-01-10"))
	tests := []struct {
		date Date
		want int
	}{
		{MustParse("2024-01-01"), 0},
		{MustParse("2024-01-10"), 9},
		{MustParse("2023-12-31"), -1},
		{MustParse("2024-01-11"), -1},
	}
	for _, tt := range tests {
		if got := r.Index(tt.date); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestNewRange_Swaps(t *testing.T) {
	r := NewRange(MustParse("2024-01-10"), MustParse("2024-01-01"))
	if r.From != MustParse("2024-01-01") || r.To != MustParse("2024-01-10") {
		t.Errorf("NewRange() = %v, want [2024-01-01, 2024-01-10]", r)
	}
}
