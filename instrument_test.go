package depot

import (
	"errors"
	"slices"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(
		Instrument{ID: " A0RPWH ", Ticker: " eunl.de", Name: "iShares Core MSCI World"},
		Instrument{ID: "tagesgeld", Name: "Tagesgeld", Default: N("1")},
	)
	if err != nil {
		t.Fatalf("NewRegistry() unexpected error: %v", err)
	}
	in, ok := reg.Lookup("a0rpwh")
	if !ok {
		t.Fatal("Lookup(a0rpwh) not found")
	}
	if in.Ticker != "EUNL.DE" {
		t.Errorf("Ticker = %q, want %q", in.Ticker, "EUNL.DE")
	}
	if !in.HasTicker() {
		t.Error("HasTicker() = false, want true")
	}
	if _, ok := reg.Lookup("A0RPWH"); !ok {
		t.Error("Lookup is not case insensitive")
	}
	if got := reg.IDs(); !slices.Equal(got, []string{"a0rpwh", "tagesgeld"}) {
		t.Errorf("IDs() = %v, want load order", got)
	}
	if got := reg.Name("unknown"); got != "unknown" {
		t.Errorf("Name(unknown) = %q, want %q", got, "unknown")
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name        string
		instruments []Instrument
	}{
		{"duplicate after normalization", []Instrument{{ID: "abc"}, {ID: " ABC"}}},
		{"missing id", []Instrument{{ID: "abc"}, {ID: "  ", Ticker: "X"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.instruments...)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("NewRegistry() error = %v, want ErrValidation", err)
			}
		})
	}
}
