package depot

import (
	"cmp"
	"iter"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BookingRow is a raw ledger line as read from a source file.
//
// Any of its fields may be missing: a zero Date, an empty Instrument or
// Account, an invalid Delta.
type BookingRow struct {
	Date       Date
	Instrument string
	Account    string
	Delta      decimal.NullDecimal
}

// Valid reports whether the row has all its fields.
func (r BookingRow) Valid() bool {
	return !r.Date.IsZero() && strings.TrimSpace(r.Instrument) != "" && strings.TrimSpace(r.Account) != "" && r.Delta.Valid
}

// Booking is a net signed quantity of an instrument moved in an account on a given day.
type Booking struct {
	Date       Date
	Instrument string
	Account    string
	Delta      decimal.Decimal
}

type bookingKey struct {
	date       Date
	instrument string
	account    string
}

// Ledger holds the net bookings of a depot: same day bookings of an instrument
// in an account are summed into a single delta.
type Ledger struct {
	deltas      map[bookingKey]decimal.Decimal
	first, last Date
	instruments []string // sorted
	accounts    []string // sorted
}

// NewLedger builds a Ledger out of raw rows.
//
// Rows with a missing field are dropped, dropped counts them.
// Instrument ids are normalized.
func NewLedger(rows []BookingRow) (l *Ledger, dropped int) {
	l = &Ledger{deltas: make(map[bookingKey]decimal.Decimal)}
	instruments := make(map[string]struct{})
	accounts := make(map[string]struct{})
	for _, row := range rows {
		if !row.Valid() {
			dropped++
			continue
		}
		k := bookingKey{row.Date, NormalizeID(row.Instrument), strings.TrimSpace(row.Account)}
		l.deltas[k] = l.deltas[k].Add(row.Delta.Decimal)
		instruments[k.instrument] = struct{}{}
		accounts[k.account] = struct{}{}
		if l.first.IsZero() || k.date.Before(l.first) {
			l.first = k.date
		}
		if l.last.IsZero() || k.date.After(l.last) {
			l.last = k.date
		}
	}
	l.instruments = sortedKeys(instruments)
	l.accounts = sortedKeys(accounts)
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Int("rows", len(rows)).Msg("ledger rows with missing fields ignored")
	}
	return l, dropped
}

// First returns the date of the earliest booking, or the zero Date for an empty ledger.
func (l *Ledger) First() Date { return l.first }

// Last returns the date of the latest booking.
func (l *Ledger) Last() Date { return l.last }

// Len returns the number of net bookings.
func (l *Ledger) Len() int { return len(l.deltas) }

// Instruments returns the sorted instrument ids observed in the ledger.
func (l *Ledger) Instruments() []string { return append([]string(nil), l.instruments...) }

// Accounts returns the sorted account ids observed in the ledger.
func (l *Ledger) Accounts() []string { return append([]string(nil), l.accounts...) }

// Delta returns the net delta booked on that day, zero if there is none.
func (l *Ledger) Delta(on Date, instrument, account string) decimal.Decimal {
	return l.deltas[bookingKey{on, NormalizeID(instrument), strings.TrimSpace(account)}]
}

// Bookings iterates over net bookings by date, instrument and account.
func (l *Ledger) Bookings() iter.Seq[Booking] {
	keys := make([]bookingKey, 0, len(l.deltas))
	for k := range l.deltas {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b bookingKey) int {
		if c := a.date.Sub(b.date); c != 0 {
			return cmp.Compare(c, 0)
		}
		if c := strings.Compare(a.instrument, b.instrument); c != 0 {
			return c
		}
		return strings.Compare(a.account, b.account)
	})
	return func(yield func(Booking) bool) {
		for _, k := range keys {
			if !yield(Booking{k.date, k.instrument, k.account, l.deltas[k]}) {
				return
			}
		}
	}
}

// Unregistered returns the ledger instruments missing from reg.
func (l *Ledger) Unregistered(reg *Registry) []string {
	var missing []string
	for _, id := range l.instruments {
		if _, ok := reg.Lookup(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
