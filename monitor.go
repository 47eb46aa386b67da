package depot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReferenceLookback is the number of calendar days before a reference date in
// which an earlier close may stand for a missing one.
const ReferenceLookback = 5

var hundred = decimal.NewFromInt(100)

// ResolveReference returns the price on a reference day: the close of that
// day, or else the latest close strictly before it within lookback days.
// Null closes are skipped.
func ResolveReference(series map[Date]decimal.NullDecimal, on Date, lookback int) (price decimal.Decimal, at Date, ok bool) {
	for i := 0; i <= lookback; i++ {
		d := on.Add(-i)
		if v, found := series[d]; found && v.Valid {
			return v.Decimal, d, true
		}
	}
	return decimal.Decimal{}, Date{}, false
}

// Comparison holds the resolved reference prices of a reference date.
type Comparison struct {
	Date   Date
	Prices map[string]decimal.Decimal // by instrument
}

// QuoteReferences resolves the reference prices of every instrument with a
// ticker out of recorded quotes.
func QuoteReferences(q *Quotes, reg *Registry, on Date) Comparison {
	c := Comparison{Date: on, Prices: make(map[string]decimal.Decimal)}
	for in := range reg.All() {
		if !in.HasTicker() {
			continue
		}
		if price, _, ok := ResolveReference(q.Series(in.ID), on, ReferenceLookback); ok {
			c.Prices[in.ID] = price
		} else {
			log.Warn().Str("instrument", in.ID).Stringer("date", on).Msg("no reference price")
		}
	}
	return c
}

// FetchReferences resolves the reference prices of every instrument with a
// ticker by asking src for the days around on, one instrument at a time.
//
// A failed fetch only leaves that instrument out. The returned error is only
// the context's one.
func FetchReferences(ctx context.Context, src HistoricalSource, reg *Registry, on Date, timeout time.Duration) (Comparison, error) {
	c := Comparison{Date: on, Prices: make(map[string]decimal.Decimal)}
	window := Range{From: on.Add(-ReferenceLookback), To: on.Add(1)}
	for in := range reg.All() {
		if !in.HasTicker() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return c, err
		}
		closes, err := fetchWithTimeout(ctx, src, in.Ticker, window, timeout)
		if err != nil {
			log.Warn().Err(err).Str("instrument", in.ID).Str("ticker", in.Ticker).Stringer("date", on).Msg("reference fetch failed")
			continue
		}
		series := make(map[Date]decimal.NullDecimal, len(closes))
		for d, v := range closes {
			series[d] = decimal.NewNullDecimal(v)
		}
		if price, _, ok := ResolveReference(series, on, ReferenceLookback); ok {
			c.Prices[in.ID] = price
		} else {
			log.Warn().Str("instrument", in.ID).Str("ticker", in.Ticker).Stringer("date", on).Msg("no reference price")
		}
	}
	return c, nil
}

// LivePrices asks src for the latest price of every instrument with a ticker.
// Failures are logged and leave the instrument out.
func LivePrices(ctx context.Context, src LiveSource, reg *Registry, timeout time.Duration) (map[string]decimal.NullDecimal, error) {
	live := make(map[string]decimal.NullDecimal)
	for in := range reg.All() {
		if !in.HasTicker() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return live, err
		}
		price, err := callWithTimeout(ctx, timeout, func(ctx context.Context) (decimal.NullDecimal, error) {
			return src.Latest(ctx, in.Ticker)
		})
		if err != nil {
			log.Warn().Err(err).Str("instrument", in.ID).Str("ticker", in.Ticker).Msg("live price fetch failed")
			continue
		}
		if !price.Valid {
			log.Warn().Str("instrument", in.ID).Str("ticker", in.Ticker).Msg("no live price")
			continue
		}
		live[in.ID] = price
	}
	return live, nil
}

// ComputeDeltas compares live prices with reference prices.
//
// shares is a (date, instrument) table of share counts summed over accounts;
// the count on daily.Date is the reference count, for the monthly comparison
// too. An instrument is reported only when it has a live price, a positive
// reference count and a daily reference price. Its monthly figures are left
// out when monthly is nil or has no price for it.
func ComputeDeltas(reg *Registry, shares *Table, daily Comparison, monthly *Comparison, live map[string]decimal.NullDecimal) (*Report, error) {
	if !shares.HasKeys(KeyDate, KeyInstrument) {
		return nil, Validationf("reference shares keyed by %v, want [date instrument]", shares.Keys())
	}
	r := &Report{ReferenceDate: daily.Date}
	if monthly != nil {
		r.MonthlyDate = monthly.Date
	}

	for in := range reg.All() {
		price, ok := live[in.ID]
		if !ok || !price.Valid {
			continue
		}
		count, ok := shares.At(daily.Date, in.ID)
		if !ok || !count.Valid || !count.Decimal.IsPositive() {
			log.Debug().Str("instrument", in.ID).Msg("not held on reference date, not reported")
			continue
		}
		ref, ok := daily.Prices[in.ID]
		if !ok {
			log.Debug().Str("instrument", in.ID).Stringer("date", daily.Date).Msg("no reference price, not reported")
			continue
		}
		delta, ok := newDelta(price.Decimal, ref, count.Decimal)
		if !ok {
			log.Warn().Str("instrument", in.ID).Stringer("date", daily.Date).Msg("zero reference price, not reported")
			continue
		}
		row := ReportRow{
			Instrument: in.ID,
			Name:       in.DisplayName(),
			Shares:     count.Decimal,
			Live:       price.Decimal,
			Daily:      delta,
		}
		if monthly != nil {
			if ref, ok := monthly.Prices[in.ID]; ok {
				if m, ok := newDelta(price.Decimal, ref, count.Decimal); ok {
					row.Monthly = &m
				}
			}
		}
		r.Rows = append(r.Rows, row)
	}

	r.Total.Daily = decimal.Zero
	for _, row := range r.Rows {
		r.Total.Daily = r.Total.Daily.Add(row.Daily.Value)
		if row.Monthly != nil {
			r.Total.Monthly = decimal.NewNullDecimal(r.Total.Monthly.Decimal.Add(row.Monthly.Value))
		}
	}
	return r, nil
}

func newDelta(live, ref, shares decimal.Decimal) (Delta, bool) {
	if ref.IsZero() {
		return Delta{}, false
	}
	diff := live.Sub(ref)
	return Delta{
		Reference: ref,
		Price:     diff,
		Percent:   diff.Div(ref).Mul(hundred),
		Value:     diff.Mul(shares),
	}, true
}
