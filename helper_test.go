package depot

import (
	"testing"

	"github.com/shopspring/decimal"
)

// D is a helper for test to create a decimal from a const string.
func D(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// N is a helper for test to create a non null decimal from a const string.
func N(v string) decimal.NullDecimal { return decimal.NewNullDecimal(D(v)) }

// Null is the null cell.
var Null = decimal.NullDecimal{}

// row is a helper for test to create a valid booking row.
func row(date, instrument, account, delta string) BookingRow {
	return BookingRow{Date: MustParse(date), Instrument: instrument, Account: account, Delta: N(delta)}
}

// mustRegistry is a helper for test to build a registry.
func mustRegistry(t *testing.T, instruments ...Instrument) *Registry {
	t.Helper()
	reg, err := NewRegistry(instruments...)
	if err != nil {
		t.Fatalf("NewRegistry() unexpected error: %v", err)
	}
	return reg
}

// assertCell checks a table cell.
func assertCell(t *testing.T, tab *Table, on, instrument, account string, want decimal.NullDecimal) {
	t.Helper()
	got, ok := tab.Get(MustParse(on), instrument, account)
	if !ok {
		t.Errorf("Get(%s, %s, %s) is out of the table", on, instrument, account)
		return
	}
	if !nullEqual(got, want) {
		t.Errorf("Get(%s, %s, %s) = %s, want %s", on, instrument, account, fmtNull(got), fmtNull(want))
	}
}

func fmtNull(v decimal.NullDecimal) string {
	if !v.Valid {
		return "null"
	}
	return v.Decimal.String()
}
