package depot

import (
	"iter"
	"slices"

	"github.com/shopspring/decimal"
)

// Quotes is a sparse store of daily closing prices per instrument.
//
// A null quote records that a price was looked for and not found.
type Quotes struct {
	series map[string]map[Date]decimal.NullDecimal
}

// NewQuotes returns an empty store.
func NewQuotes() *Quotes {
	return &Quotes{series: make(map[string]map[Date]decimal.NullDecimal)}
}

// Set records the quote of instrument on a day.
func (q *Quotes) Set(instrument string, on Date, price decimal.NullDecimal) {
	instrument = NormalizeID(instrument)
	s, ok := q.series[instrument]
	if !ok {
		s = make(map[Date]decimal.NullDecimal)
		q.series[instrument] = s
	}
	s[on] = price
}

// Get returns the quote of instrument on a day, ok is false when nothing was recorded.
func (q *Quotes) Get(instrument string, on Date) (price decimal.NullDecimal, ok bool) {
	price, ok = q.series[NormalizeID(instrument)][on]
	return
}

// Series returns the recorded quotes of instrument. It must not be modified.
func (q *Quotes) Series(instrument string) map[Date]decimal.NullDecimal {
	return q.series[NormalizeID(instrument)]
}

// Instruments returns the sorted instruments with at least one quote.
func (q *Quotes) Instruments() []string { return sortedKeys(q.series) }

// Len returns the number of recorded quotes, nulls included.
func (q *Quotes) Len() int {
	n := 0
	for _, s := range q.series {
		n += len(s)
	}
	return n
}

// Bounds returns the first and last dates with a recorded quote. ok is false
// for an empty store.
func (q *Quotes) Bounds() (first, last Date, ok bool) {
	for _, s := range q.series {
		for d := range s {
			if !ok || d.Before(first) {
				first = d
			}
			if !ok || d.After(last) {
				last = d
			}
			ok = true
		}
	}
	return
}

// FirstKnown returns the first date with a non null quote. ok is false when
// every recorded quote is null.
func (q *Quotes) FirstKnown() (first Date, ok bool) {
	for _, s := range q.series {
		for d, v := range s {
			if v.Valid && (!ok || d.Before(first)) {
				first, ok = d, true
			}
		}
	}
	return
}

// Quote is one entry of Quotes.
type Quote struct {
	Instrument string
	Date       Date
	Price      decimal.NullDecimal
}

// All iterates over quotes by instrument and date.
func (q *Quotes) All() iter.Seq[Quote] {
	return func(yield func(Quote) bool) {
		for _, id := range q.Instruments() {
			s := q.series[id]
			days := make([]Date, 0, len(s))
			for d := range s {
				days = append(days, d)
			}
			slices.SortFunc(days, func(a, b Date) int { return a.Sub(b) })
			for _, d := range days {
				if !yield(Quote{id, d, s[d]}) {
					return
				}
			}
		}
	}
}

// QuotesOf turns a (date, instrument) table back into a store, nulls included.
func QuotesOf(t *Table) *Quotes {
	q := NewQuotes()
	for c := range t.Cells() {
		q.Set(c.Instrument, c.Date, c.Value)
	}
	return q
}
