package depot

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"
)

// Key names a dimension of a Table.
type Key string

const (
	KeyDate       Key = "date"
	KeyInstrument Key = "instrument"
	KeyAccount    Key = "account"
)

// Table is a dense table of nullable decimals.
//
// It is keyed either by (date, instrument) or by (date, instrument, account),
// and holds one cell for every combination of its axes: every day of a Range,
// every instrument and every account. Missing facts are explicit nulls.
type Table struct {
	keys        []Key
	days        Range
	instruments []string
	accounts    []string
	instIndex   map[string]int
	accIndex    map[string]int
	cells       []decimal.NullDecimal
}

// NewTable returns a table of nulls.
//
// A nil accounts creates a (date, instrument) table, otherwise a (date,
// instrument, account) one. Axes are copied and sorted.
func NewTable(days Range, instruments, accounts []string) *Table {
	t := &Table{
		keys:        []Key{KeyDate, KeyInstrument},
		days:        days,
		instruments: slices.Sorted(slices.Values(instruments)),
		instIndex:   make(map[string]int, len(instruments)),
	}
	t.instruments = slices.Compact(t.instruments)
	for i, id := range t.instruments {
		t.instIndex[id] = i
	}
	if accounts != nil {
		t.keys = append(t.keys, KeyAccount)
		t.accounts = slices.Compact(slices.Sorted(slices.Values(accounts)))
		t.accIndex = make(map[string]int, len(t.accounts))
		for i, id := range t.accounts {
			t.accIndex[id] = i
		}
	}
	t.cells = make([]decimal.NullDecimal, days.Len()*len(t.instruments)*t.width())
	return t
}

// width is the number of cells per (date, instrument).
func (t *Table) width() int {
	if t.accIndex == nil {
		return 1
	}
	return len(t.accounts)
}

// Keys returns the dimensions of t, date first.
func (t *Table) Keys() []Key { return append([]Key(nil), t.keys...) }

// HasKeys reports whether t is keyed by exactly keys.
func (t *Table) HasKeys(keys ...Key) bool { return slices.Equal(t.keys, keys) }

// Days returns the date axis.
func (t *Table) Days() Range { return t.days }

// Instruments returns the sorted instrument axis.
func (t *Table) Instruments() []string { return append([]string(nil), t.instruments...) }

// Accounts returns the sorted account axis, nil for a (date, instrument) table.
func (t *Table) Accounts() []string {
	if t.accIndex == nil {
		return nil
	}
	return append([]string{}, t.accounts...)
}

// Len returns the number of cells.
func (t *Table) Len() int { return len(t.cells) }

// Empty reports whether t has no cell.
func (t *Table) Empty() bool { return len(t.cells) == 0 }

func (t *Table) index(on Date, instrument, account string) int {
	d := t.days.Index(on)
	if d < 0 {
		return -1
	}
	i, ok := t.instIndex[instrument]
	if !ok {
		return -1
	}
	a := 0
	if t.accIndex != nil {
		if a, ok = t.accIndex[account]; !ok {
			return -1
		}
	}
	return (d*len(t.instruments)+i)*t.width() + a
}

// Get returns the cell at (on, instrument, account). The account is ignored
// for (date, instrument) tables. ok is false outside of the table domain.
func (t *Table) Get(on Date, instrument, account string) (v decimal.NullDecimal, ok bool) {
	i := t.index(on, instrument, account)
	if i < 0 {
		return decimal.NullDecimal{}, false
	}
	return t.cells[i], true
}

// At returns the cell at (on, instrument) of a (date, instrument) table.
func (t *Table) At(on Date, instrument string) (decimal.NullDecimal, bool) {
	if t.accIndex != nil {
		return decimal.NullDecimal{}, false
	}
	return t.Get(on, instrument, "")
}

// Set replaces a cell, it reports false outside of the table domain.
func (t *Table) Set(on Date, instrument, account string, v decimal.NullDecimal) bool {
	i := t.index(on, instrument, account)
	if i < 0 {
		return false
	}
	t.cells[i] = v
	return true
}

// On returns the cells of a (date, instrument) table on a given day, by instrument.
// It is empty when the day is out of the table.
func (t *Table) On(day Date) map[string]decimal.NullDecimal {
	m := make(map[string]decimal.NullDecimal)
	if t.accIndex != nil || !t.days.Contains(day) {
		return m
	}
	for _, id := range t.instruments {
		m[id], _ = t.At(day, id)
	}
	return m
}

// Cell is one entry of a Table.
type Cell struct {
	Date       Date
	Instrument string
	Account    string // empty for (date, instrument) tables
	Value      decimal.NullDecimal
}

// Cells iterates over every cell by date, instrument and account.
func (t *Table) Cells() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		i := 0
		for day := range t.days.Days() {
			for _, id := range t.instruments {
				if t.accIndex == nil {
					if !yield(Cell{day, id, "", t.cells[i]}) {
						return
					}
					i++
					continue
				}
				for _, acc := range t.accounts {
					if !yield(Cell{day, id, acc, t.cells[i]}) {
						return
					}
					i++
				}
			}
		}
	}
}

// Equal reports whether t and u have the same keys, axes and cells.
func (t *Table) Equal(u *Table) bool {
	if !slices.Equal(t.keys, u.keys) || t.days != u.days ||
		!slices.Equal(t.instruments, u.instruments) || !slices.Equal(t.accounts, u.accounts) ||
		len(t.cells) != len(u.cells) {
		return false
	}
	for i := range t.cells {
		if !nullEqual(t.cells[i], u.cells[i]) {
			return false
		}
	}
	return true
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
