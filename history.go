package depot

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// History is the historical value of the depot: values summed over accounts,
// per day and instrument, with a daily total.
type History struct {
	reg    *Registry
	values *Table // (date, instrument)
}

// NewHistory builds the history out of (date, instrument) values.
func NewHistory(reg *Registry, values *Table) (*History, error) {
	if !values.HasKeys(KeyDate, KeyInstrument) {
		return nil, Validationf("values keyed by %v, want [date instrument]", values.Keys())
	}
	return &History{reg: reg, values: values}, nil
}

// Days returns the history domain.
func (h *History) Days() Range { return h.values.Days() }

// Total returns the depot value on a day. Null values count as zero.
func (h *History) Total(on Date) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range h.values.On(on) {
		if v.Valid {
			sum = sum.Add(v.Decimal)
		}
	}
	return sum
}

// MarshalJSON writes the dates, one series of values per instrument and the
// daily total, amounts rounded to cents, nulls kept as null.
func (h *History) MarshalJSON() ([]byte, error) {
	days := h.values.Days()
	dates := make([]Date, 0, days.Len())
	totals := make([]json.Number, 0, days.Len())
	for d := range days.Days() {
		dates = append(dates, d)
		totals = append(totals, round2(h.Total(d)))
	}

	series := make([]json.RawMessage, 0, len(h.values.instruments))
	for _, id := range h.values.instruments {
		values := make([]*json.Number, 0, days.Len())
		for _, d := range dates {
			v, _ := h.values.At(d, id)
			if !v.Valid {
				values = append(values, nil)
				continue
			}
			n := round2(v.Decimal)
			values = append(values, &n)
		}
		var w jsonObjectWriter
		w.Append("id", id)
		w.Append("name", h.reg.Name(id))
		w.Append("values", values)
		b, err := w.MarshalJSON()
		if err != nil {
			return nil, err
		}
		series = append(series, b)
	}

	var w jsonObjectWriter
	w.Append("dates", dates)
	w.Append("instruments", series)
	w.Append("total", totals)
	return w.MarshalJSON()
}
