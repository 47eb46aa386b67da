package depot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultFetchTimeout bounds every single fetch.
const DefaultFetchTimeout = 30 * time.Second

// Updater extends stored quotes forward in time.
type Updater struct {
	Source   HistoricalSource
	Calendar *Calendar
	Timeout  time.Duration // per fetch, DefaultFetchTimeout when zero
	Start    Date          // first day to fetch when there is no quote at all
}

// UpdateStats counts what an update did.
type UpdateStats struct {
	Days      int // trading days to fill
	Fetched   int // quotes found
	Missing   int // quotes looked for and not found
	Failed    int // instruments whose fetch failed
	Defaulted int // quotes set to the instrument default value
}

func (s UpdateStats) String() string {
	return fmt.Sprintf("%d days: %d fetched, %d missing, %d defaulted, %d failed instruments", s.Days, s.Fetched, s.Missing, s.Defaulted, s.Failed)
}

// Update records quotes for every trading day from the day after the last
// recorded quote to yesterday.
//
// Only trading days are fetched, other days are left to forward filling.
// A failed or empty fetch records nulls for that instrument and is logged; it
// never stops the update. Instruments without ticker get their default value.
// The returned error is only the context's one.
func (u *Updater) Update(ctx context.Context, q *Quotes, reg *Registry, yesterday Date) (UpdateStats, error) {
	var stats UpdateStats
	from := u.Start
	if _, last, ok := q.Bounds(); ok {
		from = last.Add(1)
	}
	if from.IsZero() {
		return stats, fmt.Errorf("no quote recorded and no start date to update from")
	}
	days := u.Calendar.TradingDays(Range{From: from, To: yesterday})
	stats.Days = len(days)
	if len(days) == 0 {
		log.Info().Stringer("last", from.Add(-1)).Msg("quotes are up to date")
		return stats, nil
	}
	window := Range{From: days[0], To: days[len(days)-1]}

	for in := range reg.All() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !in.HasTicker() {
			for _, d := range days {
				q.Set(in.ID, d, in.Default)
				stats.Defaulted++
			}
			continue
		}

		closes, err := u.fetch(ctx, in.Ticker, window)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			log.Warn().Err(err).Str("instrument", in.ID).Str("ticker", in.Ticker).Stringer("range", window).Msg("fetch failed, prices set to null")
			stats.Failed++
		}
		for _, d := range days {
			if price, ok := closes[d]; ok {
				q.Set(in.ID, d, decimal.NewNullDecimal(price))
				stats.Fetched++
				continue
			}
			if err == nil {
				log.Warn().Str("instrument", in.ID).Str("ticker", in.Ticker).Stringer("date", d).Msg("no price for trading day")
			}
			q.Set(in.ID, d, decimal.NullDecimal{})
			stats.Missing++
		}
	}
	return stats, nil
}

// fetch calls the source with its own deadline.
func (u *Updater) fetch(ctx context.Context, ticker string, r Range) (map[Date]decimal.Decimal, error) {
	return fetchWithTimeout(ctx, u.Source, ticker, r, u.Timeout)
}

func fetchWithTimeout(ctx context.Context, src HistoricalSource, ticker string, r Range, timeout time.Duration) (map[Date]decimal.Decimal, error) {
	return callWithTimeout(ctx, timeout, func(ctx context.Context) (map[Date]decimal.Decimal, error) {
		return src.Fetch(ctx, ticker, r)
	})
}

// callWithTimeout runs call with its own deadline, and gives up at the
// deadline even if call does not watch its context.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call(ctx)
		done <- result{v, err}
	}()
	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
