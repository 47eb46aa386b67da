// Package eodhd serves market data from the EOD Historical Data API.
//
// End-of-day closes are read from /api/eod, cached on disk for the day, and
// live prices from /api/real-time which is never cached.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/depot"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the address of the EODHD API.
const DefaultBaseURL = "https://eodhd.com"

// Client reads quotes from EODHD. It implements depot.Provider.
type Client struct {
	apiKey string
	base   string
	eod    *http.Client // cached daily
	live   *http.Client
}

var _ depot.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.base = strings.TrimSuffix(base, "/") }
}

// WithTransport sets the round tripper under the cache.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		dir := c.eod.Transport.(*diskCache).dir
		c.eod = newDailyCachingClient(rt, dir)
		c.live = &http.Client{Transport: rt}
	}
}

// WithCacheDir sets the directory of the daily cache.
func WithCacheDir(dir string) Option {
	return func(c *Client) {
		base := c.eod.Transport.(*diskCache).base
		c.eod = newDailyCachingClient(base, dir)
	}
}

// New returns a client using apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		base:   DefaultBaseURL,
		eod:    newDailyCachingClient(nil, ""),
		live:   new(http.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) url(endpoint, ticker string, query url.Values) string {
	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")
	return fmt.Sprintf("%s/api/%s/%s?%s", c.base, endpoint, url.PathEscape(ticker), query.Encode())
}

// Fetch returns the daily closes of ticker between r.From and r.To included.
func (c *Client) Fetch(ctx context.Context, ticker string, r depot.Range) (map[depot.Date]decimal.Decimal, error) {
	// [{"date": "2024-02-13", "open": 675.066, "high": 684.219, "low": 648.659,
	//   "close": 668.445, "adjusted_close": 67.705, "volume": 0}, ...]
	addr := c.url("eod", ticker, url.Values{
		"from": {r.From.String()},
		"to":   {r.To.String()},
	})
	type Info struct {
		Date  depot.Date          `json:"date"`
		Close decimal.NullDecimal `json:"close"`
	}

	content := make([]Info, 0)
	if err := jwget(ctx, c.eod, addr, &content); err != nil {
		return nil, fmt.Errorf("eodhd closes of %s: %w", ticker, err)
	}
	closes := make(map[depot.Date]decimal.Decimal, len(content))
	for _, info := range content {
		if info.Close.Valid && r.Contains(info.Date) {
			closes[info.Date] = info.Close.Decimal
		}
	}
	return closes, nil
}

// Latest returns the last traded price of ticker, null if the API has none.
func (c *Client) Latest(ctx context.Context, ticker string) (decimal.NullDecimal, error) {
	// {"code": "AAPL.US", "timestamp": 1713546000, "open": 166.21, ..., "close": 165,
	//  "previousClose": 167.04, "change": -2.04, "change_p": -1.2213}
	var jobj any
	if err := jwget(ctx, c.live, c.url("real-time", ticker, url.Values{}), &jobj); err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("eodhd live price of %s: %w", ticker, err)
	}
	path := "$.close"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("error parsing %q: %q %w", ticker, path, err)
	}
	return toNullDecimal(jval)
}

// toNullDecimal reads a JSON number. The API writes "NA" for missing values.
func toNullDecimal(jval any) (decimal.NullDecimal, error) {
	switch v := jval.(type) {
	case nil:
		return decimal.NullDecimal{}, nil
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v)), nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NewNullDecimal(d), nil
	default:
		return decimal.NullDecimal{}, fmt.Errorf("unexpected price %v of type %T", jval, jval)
	}
}
