package depot

import (
	"context"

	"github.com/shopspring/decimal"
)

// HistoricalSource returns daily closing prices of a ticker.
//
// Fetch returns the closes known between r.From and r.To, both included. It
// may return fewer days than asked, or none.
type HistoricalSource interface {
	Fetch(ctx context.Context, ticker string, r Range) (map[Date]decimal.Decimal, error)
}

// LiveSource returns the latest traded price of a ticker, null when there is none.
type LiveSource interface {
	Latest(ctx context.Context, ticker string) (decimal.NullDecimal, error)
}

// Provider is a market data provider serving both.
type Provider interface {
	HistoricalSource
	LiveSource
}
