package depot

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Align computes one price per calendar day and instrument, from the first
// known price up to asOf.
//
// Gaps are forward filled per instrument and days before the first known
// price stay null. An instrument of reg without ticker takes its default
// value on every day, whatever was recorded. Instruments are those of reg and
// those with quotes. The table is empty when there is no known price or when
// asOf is before the first one.
func Align(q *Quotes, reg *Registry, asOf Date) *Table {
	instruments := q.Instruments()
	for id := range reg.All() {
		instruments = append(instruments, id.ID)
	}
	first, ok := q.FirstKnown()
	days := Range{From: first, To: asOf}
	if !ok || asOf.Before(first) {
		days = Range{}
	}
	t := NewTable(days, instruments, nil)
	if days.Empty() {
		return t
	}

	for _, id := range t.instruments {
		var values []decimal.NullDecimal
		in, registered := reg.Lookup(id)
		switch {
		case registered && !in.HasTicker():
			values = make([]decimal.NullDecimal, days.Len())
			for i := range values {
				values[i] = in.Default
			}
		default:
			values = densify(days, q.Series(id), ForwardFill)
			if !values[len(values)-1].Valid {
				log.Warn().Str("instrument", id).Msg("no price known, column stays null")
			}
		}
		i := 0
		for day := range days.Days() {
			t.Set(day, id, "", values[i])
			i++
		}
	}
	return t
}
