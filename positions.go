package depot

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// clampEpsilon is the magnitude under which a cumulated position is residue and set to zero.
var clampEpsilon = decimal.New(1, -4)

// Expand computes the number of shares held, per day, instrument and account.
//
// The result is a (date, instrument, account) table spanning every day from
// the first booking to end, for every instrument and every account observed in
// the ledger, including pairs that never had a booking. The value on a day is
// the sum of all deltas booked on or before that day. It is empty when end is
// before the first booking.
func Expand(l *Ledger, end Date) *Table {
	days := Range{From: l.First(), To: end}
	if l.First().IsZero() || end.Before(l.First()) {
		days = Range{}
	}
	t := NewTable(days, l.instruments, l.accounts)
	if days.Empty() {
		return t
	}

	// sparse deltas per (instrument, account)
	type pair struct{ instrument, account string }
	sparse := make(map[pair]map[Date]decimal.NullDecimal)
	for k, delta := range l.deltas {
		p := pair{k.instrument, k.account}
		if sparse[p] == nil {
			sparse[p] = make(map[Date]decimal.NullDecimal)
		}
		sparse[p][k.date] = decimal.NewNullDecimal(delta)
	}

	clamped := 0
	for _, instrument := range t.instruments {
		for _, account := range t.accounts {
			deltas := densify(days, sparse[pair{instrument, account}], ZeroFill)
			sum := decimal.Zero
			i := 0
			for day := range days.Days() {
				sum = sum.Add(deltas[i].Decimal)
				v := sum
				if !v.IsZero() && v.Abs().LessThan(clampEpsilon) {
					v = decimal.Zero
					clamped++
				}
				t.Set(day, instrument, account, decimal.NewNullDecimal(v))
				i++
			}
		}
	}
	if clamped > 0 {
		log.Debug().Int("cells", clamped).Msg("positions residue clamped to zero")
	}
	return t
}
