package depot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestResolveReference(t *testing.T) {
	series := map[Date]decimal.NullDecimal{
		MustParse("2025-04-10"): N("90"),
		MustParse("2025-04-14"): N("95"),
		MustParse("2025-04-15"): Null,
		MustParse("2025-04-17"): N("100"),
	}
	tests := []struct {
		on     string
		want   string
		wantAt string
	}{
		{"2025-04-17", "100", "2025-04-17"}, // exact
		{"2025-04-18", "100", "2025-04-17"}, // the day before
		{"2025-04-22", "100", "2025-04-17"}, // five days before
		{"2025-04-16", "95", "2025-04-14"},  // null close skipped
		{"2025-04-23", "", ""},              // six days before, out of window
		{"2025-04-09", "", ""},              // nothing earlier
	}
	for _, tt := range tests {
		t.Run(tt.on, func(t *testing.T) {
			price, at, ok := ResolveReference(series, MustParse(tt.on), ReferenceLookback)
			if ok != (tt.want != "") {
				t.Fatalf("ResolveReference(%s) ok = %v, want %v", tt.on, ok, tt.want != "")
			}
			if !ok {
				return
			}
			if !price.Equal(D(tt.want)) || at != MustParse(tt.wantAt) {
				t.Errorf("ResolveReference(%s) = %v on %v, want %s on %s", tt.on, price, at, tt.want, tt.wantAt)
			}
		})
	}
}

// sharesOn is a helper for test to build a one day (date, instrument) table of share counts.
func sharesOn(on string, counts map[string]decimal.NullDecimal) *Table {
	var ids []string
	for id := range counts {
		ids = append(ids, id)
	}
	d := MustParse(on)
	tab := NewTable(NewRange(d, d), ids, nil)
	for id, v := range counts {
		tab.Set(d, id, "", v)
	}
	return tab
}

func TestComputeDeltas(t *testing.T) {
	reg := mustRegistry(t,
		Instrument{ID: "x", Ticker: "X", Name: "Example"},
		Instrument{ID: "zero", Ticker: "ZERO"},
		Instrument{ID: "null", Ticker: "NULL"},
		Instrument{ID: "missing", Ticker: "MISSING"},
		Instrument{ID: "nolive", Ticker: "NOLIVE"},
		Instrument{ID: "noref", Ticker: "NOREF"},
		Instrument{ID: "w", Ticker: "W"},
	)
	shares := sharesOn("2025-04-17", map[string]decimal.NullDecimal{
		"x":      N("50"),
		"zero":   N("0"),
		"null":   Null,
		"nolive": N("10"),
		"noref":  N("10"),
		"w":      N("2"),
	})
	daily := Comparison{Date: MustParse("2025-04-17"), Prices: map[string]decimal.Decimal{
		"x": D("100"), "zero": D("1"), "null": D("1"), "missing": D("1"), "nolive": D("1"), "w": D("20"),
	}}
	live := map[string]decimal.NullDecimal{
		"x": N("105"), "zero": N("2"), "null": N("2"), "missing": N("2"), "noref": N("2"), "w": N("19"),
		"nolive": Null,
	}

	report, err := ComputeDeltas(reg, shares, daily, nil, live)
	if err != nil {
		t.Fatalf("ComputeDeltas() unexpected error: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("ComputeDeltas() returned %d rows, want 2: %v", len(report.Rows), report.Rows)
	}

	x := report.Rows[0]
	if x.Instrument != "x" || x.Name != "Example" {
		t.Errorf("Rows[0] = %s %q, want x Example", x.Instrument, x.Name)
	}
	if !x.Daily.Price.Equal(D("5")) || !x.Daily.Percent.Equal(D("5")) || !x.Daily.Value.Equal(D("250")) {
		t.Errorf("x delta = %v, want price 5, percent 5, value 250", x.Daily)
	}
	if x.Monthly != nil {
		t.Errorf("x monthly = %v, want none", x.Monthly)
	}
	w := report.Rows[1]
	if !w.Daily.Price.Equal(D("-1")) || !w.Daily.Percent.Equal(D("-5")) || !w.Daily.Value.Equal(D("-2")) {
		t.Errorf("w delta = %v, want price -1, percent -5, value -2", w.Daily)
	}
	if !report.Total.Daily.Equal(D("248")) {
		t.Errorf("Total.Daily = %v, want 248", report.Total.Daily)
	}
	if report.Total.Monthly.Valid {
		t.Errorf("Total.Monthly = %v, want null", report.Total.Monthly)
	}
	if report.HasMonthly() {
		t.Error("HasMonthly() = true without monthly comparison")
	}
}

func TestComputeDeltas_Monthly(t *testing.T) {
	reg := mustRegistry(t,
		Instrument{ID: "x", Ticker: "X"},
		Instrument{ID: "y", Ticker: "Y"},
	)
	shares := sharesOn("2025-04-17", map[string]decimal.NullDecimal{"x": N("50"), "y": N("10")})
	daily := Comparison{Date: MustParse("2025-04-17"), Prices: map[string]decimal.Decimal{"x": D("100"), "y": D("10")}}
	monthly := &Comparison{Date: MustParse("2025-03-31"), Prices: map[string]decimal.Decimal{"x": D("84")}}
	live := map[string]decimal.NullDecimal{"x": N("105"), "y": N("11")}

	report, err := ComputeDeltas(reg, shares, daily, monthly, live)
	if err != nil {
		t.Fatalf("ComputeDeltas() unexpected error: %v", err)
	}
	if len(report.Rows) != 2 {
		t.Fatalf("ComputeDeltas() returned %d rows, want 2", len(report.Rows))
	}
	m := report.Rows[0].Monthly
	if m == nil {
		t.Fatal("x monthly delta missing")
	}
	// monthly value uses the daily reference count
	if !m.Price.Equal(D("21")) || !m.Percent.Equal(D("25")) || !m.Value.Equal(D("1050")) {
		t.Errorf("x monthly = %v, want price 21, percent 25, value 1050", *m)
	}
	if report.Rows[1].Monthly != nil {
		t.Errorf("y monthly = %v, want none", report.Rows[1].Monthly)
	}
	if !report.Total.Daily.Equal(D("260")) {
		t.Errorf("Total.Daily = %v, want 260", report.Total.Daily)
	}
	if !report.Total.Monthly.Valid || !report.Total.Monthly.Decimal.Equal(D("1050")) {
		t.Errorf("Total.Monthly = %v, want 1050", report.Total.Monthly)
	}
	if report.MonthlyDate != MustParse("2025-03-31") {
		t.Errorf("MonthlyDate = %v", report.MonthlyDate)
	}
}

func TestComputeDeltas_ZeroReferencePrice(t *testing.T) {
	reg := mustRegistry(t, Instrument{ID: "x", Ticker: "X"})
	shares := sharesOn("2025-04-17", map[string]decimal.NullDecimal{"x": N("1")})
	daily := Comparison{Date: MustParse("2025-04-17"), Prices: map[string]decimal.Decimal{"x": D("0")}}
	report, err := ComputeDeltas(reg, shares, daily, nil, map[string]decimal.NullDecimal{"x": N("1")})
	if err != nil {
		t.Fatalf("ComputeDeltas() unexpected error: %v", err)
	}
	if len(report.Rows) != 0 {
		t.Errorf("ComputeDeltas() = %v, want no row", report.Rows)
	}
}

func TestComputeDeltas_Validation(t *testing.T) {
	reg := mustRegistry(t)
	d := MustParse("2025-04-17")
	shares := NewTable(NewRange(d, d), nil, []string{"bank"})
	if _, err := ComputeDeltas(reg, shares, Comparison{Date: d}, nil, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("ComputeDeltas() error = %v, want ErrValidation", err)
	}
}

func TestQuoteReferences(t *testing.T) {
	reg := mustRegistry(t,
		Instrument{ID: "a", Ticker: "A"},
		Instrument{ID: "b", Ticker: "B"},
		Instrument{ID: "c", Default: N("1")},
	)
	q := NewQuotes()
	q.Set("a", MustParse("2025-04-17"), N("10"))
	q.Set("b", MustParse("2025-04-10"), N("5"))
	q.Set("c", MustParse("2025-04-22"), N("1"))

	c := QuoteReferences(q, reg, MustParse("2025-04-22"))
	if len(c.Prices) != 1 || !c.Prices["a"].Equal(D("10")) {
		t.Errorf("QuoteReferences() = %v, want only a at 10", c.Prices)
	}
}

func TestFetchReferences(t *testing.T) {
	reg := mustRegistry(t,
		Instrument{ID: "a", Ticker: "A"},
		Instrument{ID: "b", Ticker: "B"},
		Instrument{ID: "slow", Ticker: "SLOW"},
		Instrument{ID: "cash", Default: N("1")},
	)
	src := &fakeSource{
		closes: map[string]map[Date]decimal.Decimal{
			"A": {MustParse("2025-04-17"): D("10"), MustParse("2025-04-23"): D("12")},
			"B": {MustParse("2025-04-11"): D("5")},
		},
		block: map[string]bool{"SLOW": true},
	}
	c, err := FetchReferences(context.Background(), src, reg, MustParse("2025-04-22"), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("FetchReferences() unexpected error: %v", err)
	}
	if len(c.Prices) != 1 || !c.Prices["a"].Equal(D("10")) {
		t.Errorf("FetchReferences() = %v, want only a at 10", c.Prices)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if got, want := src.ranges[0], NewRange(MustParse("2025-04-17"), MustParse("2025-04-23")); got != want {
		t.Errorf("fetch window = %v, want %v", got, want)
	}
}

func TestLivePrices(t *testing.T) {
	reg := mustRegistry(t,
		Instrument{ID: "a", Ticker: "A"},
		Instrument{ID: "b", Ticker: "B"},
		Instrument{ID: "c", Ticker: "C"},
		Instrument{ID: "cash", Default: N("1")},
	)
	src := &fakeSource{
		live: map[string]decimal.NullDecimal{"A": N("10"), "B": Null},
		fail: map[string]error{"C": errors.New("boom")},
	}
	live, err := LivePrices(context.Background(), src, reg, time.Second)
	if err != nil {
		t.Fatalf("LivePrices() unexpected error: %v", err)
	}
	if len(live) != 1 || !live["a"].Decimal.Equal(D("10")) {
		t.Errorf("LivePrices() = %v, want only a at 10", live)
	}
}
