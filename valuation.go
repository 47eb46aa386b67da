package depot

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Valuate multiplies positions by prices.
//
// positions must be keyed by (date, instrument, account) and prices by (date,
// instrument); the price of a day is used for every account. The result has
// the domain of positions. A cell is null when either the share count or the
// price is null, or when prices have no cell for that day and instrument.
func Valuate(positions, prices *Table) (*Table, error) {
	if !positions.HasKeys(KeyDate, KeyInstrument, KeyAccount) {
		return nil, Validationf("positions keyed by %v, want [date instrument account]", positions.Keys())
	}
	if !prices.HasKeys(KeyDate, KeyInstrument) {
		return nil, Validationf("prices keyed by %v, want [date instrument]", prices.Keys())
	}
	for _, id := range positions.instruments {
		if _, ok := prices.instIndex[id]; !ok {
			log.Warn().Str("instrument", id).Msg("held instrument has no price, values are null")
		}
	}

	values := NewTable(positions.days, positions.instruments, positions.accounts)
	i := 0
	for c := range positions.Cells() {
		price, _ := prices.At(c.Date, c.Instrument)
		if c.Value.Valid && price.Valid {
			values.cells[i] = decimal.NewNullDecimal(c.Value.Decimal.Mul(price.Decimal))
		}
		i++
	}
	return values, nil
}

// AggregateAccounts sums a (date, instrument, account) table over accounts.
//
// Null cells count as zero, so that a single missing account never drops the
// whole (date, instrument) sum. Any other key layout is a validation error.
func AggregateAccounts(t *Table) (*Table, error) {
	if t == nil {
		return nil, Validationf("no table to aggregate")
	}
	if !t.HasKeys(KeyDate, KeyInstrument, KeyAccount) {
		return nil, Validationf("table keyed by %v, want [date instrument account]", t.Keys())
	}
	if len(t.cells) != t.days.Len()*len(t.instruments)*len(t.accounts) {
		return nil, Validationf("table has %d cells for %d days, %d instruments and %d accounts", len(t.cells), t.days.Len(), len(t.instruments), len(t.accounts))
	}

	sums := NewTable(t.days, t.instruments, nil)
	nulls := 0
	width := t.width()
	for i := range sums.cells {
		sum := decimal.Zero
		for _, v := range t.cells[i*width : (i+1)*width] {
			if !v.Valid {
				nulls++
				continue
			}
			sum = sum.Add(v.Decimal)
		}
		sums.cells[i] = decimal.NewNullDecimal(sum)
	}
	if nulls > 0 {
		log.Debug().Int("nulls", nulls).Msg("null cells counted as zero in account totals")
	}
	return sums, nil
}
