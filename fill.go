package depot

import (
	"github.com/shopspring/decimal"
)

// FillRule tells how a sparse series is materialized on every day of a Range.
type FillRule int

const (
	// ZeroFill sets every day without a fact to zero. Ledger deltas use it.
	ZeroFill FillRule = iota
	// ForwardFill carries the last known value forward. Days before the first
	// known value stay null. Prices use it.
	ForwardFill
)

func (r FillRule) String() string {
	switch r {
	case ZeroFill:
		return "zero"
	case ForwardFill:
		return "forward"
	default:
		return "unknown"
	}
}

// densify returns one value per day of days, in order.
//
// With ForwardFill, a null fact does not erase the carried value, and a fact
// dated before days.From seeds the carry.
func densify(days Range, sparse map[Date]decimal.NullDecimal, rule FillRule) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, days.Len())
	switch rule {
	case ZeroFill:
		for i := range out {
			out[i] = decimal.NewNullDecimal(decimal.Zero)
		}
		for d, v := range sparse {
			if i := days.Index(d); i >= 0 && v.Valid {
				out[i] = v
			}
		}
	case ForwardFill:
		var carry decimal.NullDecimal
		var seededOn Date
		for d, v := range sparse {
			if v.Valid && d.Before(days.From) && (seededOn.IsZero() || d.After(seededOn)) {
				carry, seededOn = v, d
			}
		}
		i := 0
		for d := range days.Days() {
			if v, ok := sparse[d]; ok && v.Valid {
				carry = v
			}
			out[i] = carry
			i++
		}
	}
	return out
}
