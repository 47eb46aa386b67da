package depot

import (
	"iter"
)

// Range represents a range of dates, both boundaries included.
//
// A Range whose From is after its To is empty.
type Range struct{ From, To Date }

// NewRange creates a new date range. If 'from' is after 'to', they are swapped.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Empty reports whether the range contains no day at all.
func (r Range) Empty() bool { return r.From.IsZero() || r.To.IsZero() || r.From.After(r.To) }

// Len returns the number of days in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.To.Sub(r.From) + 1
}

// Index returns the position of date in the range, or -1 if it is outside.
func (r Range) Index(date Date) int {
	if !r.Contains(date) {
		return -1
	}
	return date.Sub(r.From)
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool {
	return !r.Empty() && !date.Before(r.From) && !date.After(r.To)
}

// Days returns an iterator that yields each date within the range, inclusive.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		if r.Empty() {
			return
		}
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

func (r Range) String() string {
	if r.Empty() {
		return "[]"
	}
	return "[" + r.From.String() + ", " + r.To.String() + "]"
}
