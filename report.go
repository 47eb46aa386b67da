package depot

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TotalName is the name of the synthetic total row of a published report.
const TotalName = "SUMME"

// Report is the result of a live comparison against reference dates.
type Report struct {
	ID            string    // poll identifier, may be empty
	Time          time.Time // when live prices were fetched, may be zero
	ReferenceDate Date
	MonthlyDate   Date // zero without monthly comparison
	Rows          []ReportRow
	Total         Total
}

// HasMonthly reports whether the report compares with a monthly reference too.
func (r *Report) HasMonthly() bool { return !r.MonthlyDate.IsZero() }

// ReportRow compares the live price of one instrument with its reference prices.
type ReportRow struct {
	Instrument string
	Name       string
	Shares     decimal.Decimal // reference share count
	Live       decimal.Decimal
	Daily      Delta
	Monthly    *Delta // nil when not available
}

// Delta is the change from a reference price to the live price.
type Delta struct {
	Reference decimal.Decimal // reference price
	Price     decimal.Decimal // live minus reference
	Percent   decimal.Decimal // Price relative to Reference, in percent
	Value     decimal.Decimal // Price times the reference share count
}

// Total sums value deltas over the rows.
type Total struct {
	Daily   decimal.Decimal
	Monthly decimal.NullDecimal // null when no row has a monthly delta
}

// published column names, kept stable for the web front end.
const (
	colName         = "Name"
	colLive         = "Aktueller Preis"
	colPrice        = "Kursdiff"
	colPercent      = "Kursdiff (%)"
	colValue        = "Wertdiff (€)"
	colMonthPrice   = "Kursdiff Monat"
	colMonthPercent = "Kursdiff Monat (%)"
	colMonthValue   = "Wertdiff Monat (€)"
)

// ReportColumns lists the row keys of the report document in order.
var ReportColumns = []string{colName, colLive, colPrice, colPercent, colValue, colMonthPrice, colMonthPercent, colMonthValue}

// round2 renders a decimal as a JSON number with two decimals at most.
func round2(d decimal.Decimal) json.Number { return json.Number(d.Round(2).String()) }

// MarshalJSON writes the document read by the web front end:
// reference dates as dd.mm.yyyy, one object per row with amounts rounded
// to cents, an empty string for missing figures, and a total row when there
// is at least one row.
func (r *Report) MarshalJSON() ([]byte, error) {
	data := make([]json.RawMessage, 0, len(r.Rows)+1)
	for _, row := range r.Rows {
		var w jsonObjectWriter
		w.Append(colName, row.Name)
		w.Append(colLive, round2(row.Live))
		w.Append(colPrice, round2(row.Daily.Price))
		w.Append(colPercent, round2(row.Daily.Percent))
		w.Append(colValue, round2(row.Daily.Value))
		if row.Monthly != nil {
			w.Append(colMonthPrice, round2(row.Monthly.Price))
			w.Append(colMonthPercent, round2(row.Monthly.Percent))
			w.Append(colMonthValue, round2(row.Monthly.Value))
		} else {
			w.Append(colMonthPrice, "")
			w.Append(colMonthPercent, "")
			w.Append(colMonthValue, "")
		}
		b, err := w.MarshalJSON()
		if err != nil {
			return nil, err
		}
		data = append(data, b)
	}
	if len(r.Rows) > 0 {
		var w jsonObjectWriter
		w.Append(colName, TotalName)
		w.Append(colLive, "")
		w.Append(colPrice, "")
		w.Append(colPercent, "")
		w.Append(colValue, round2(r.Total.Daily))
		w.Append(colMonthPrice, "")
		w.Append(colMonthPercent, "")
		if r.Total.Monthly.Valid {
			w.Append(colMonthValue, round2(r.Total.Monthly.Decimal))
		} else {
			w.Append(colMonthValue, "")
		}
		b, err := w.MarshalJSON()
		if err != nil {
			return nil, err
		}
		data = append(data, b)
	}

	var w jsonObjectWriter
	w.Append("reference_date", r.ReferenceDate.German())
	if r.HasMonthly() {
		w.Append("reference_date_month", r.MonthlyDate.German())
	} else {
		w.Append("reference_date_month", "")
	}
	w.Optional("id", r.ID)
	if !r.Time.IsZero() {
		w.Append("time", r.Time.Format(time.RFC3339))
	}
	w.Append("data", data)
	return w.MarshalJSON()
}
