// Package yahoo serves market data from the Yahoo Finance chart API.
//
// It needs no API key. Tickers are Yahoo symbols such as EUNL.DE.
package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/depot"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the address of the chart API.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// the API rejects requests without a browser like agent.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Client reads quotes from Yahoo Finance. It implements depot.Provider.
type Client struct {
	base string
	http *http.Client
}

var _ depot.Provider = (*Client)(nil)

// New returns a client to base, DefaultBaseURL when empty, using hc or the
// default http client when nil.
func New(base string, hc *http.Client) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimSuffix(base, "/"), http: hc}
}

// chart fetches the chart document of ticker.
func (c *Client) chart(ctx context.Context, ticker string, query url.Values) (any, error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.base, url.PathEscape(ticker), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("http")

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(buf.Bytes(), &jobj); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
		}
		return nil, err
	}
	// {"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}
	if desc, err := jsonpath.Get("$.chart.error.description", jobj); err == nil && desc != nil {
		return nil, fmt.Errorf("yahoo chart of %s: %v", ticker, desc)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	return jobj, nil
}

// series reads the (day, close) pairs of a chart document. Timestamps are
// shifted into the exchange time zone before taking the day.
func series(jobj any) (days []depot.Date, closes []any, err error) {
	jtimes, err := jsonpath.Get("$.chart.result[0].timestamp", jobj)
	if err != nil {
		// no trade in the period
		return nil, nil, nil
	}
	times, ok := jtimes.([]any)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected timestamps %T", jtimes)
	}
	jcloses, err := jsonpath.Get("$.chart.result[0].indicators.quote[0].close", jobj)
	if err != nil {
		return nil, nil, fmt.Errorf("no close in chart: %w", err)
	}
	closes, ok = jcloses.([]any)
	if !ok || len(closes) != len(times) {
		return nil, nil, fmt.Errorf("closes do not match timestamps")
	}
	var offset float64
	if o, err := jsonpath.Get("$.chart.result[0].meta.gmtoffset", jobj); err == nil {
		offset, _ = o.(float64)
	}
	days = make([]depot.Date, len(times))
	for i, ts := range times {
		sec, ok := ts.(float64)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected timestamp %v", ts)
		}
		days[i] = depot.DateOf(time.Unix(int64(sec+offset), 0).UTC())
	}
	return days, closes, nil
}

// toDecimal reads a close, null closes are not ok.
func toDecimal(jval any) (decimal.Decimal, bool) {
	v, ok := jval.(float64)
	if !ok {
		return decimal.Decimal{}, false
	}
	// closes are float32 rendered, rounding to 6 digits drops the noise
	return decimal.NewFromFloat(v).Round(6), true
}

// Fetch returns the daily closes of ticker between r.From and r.To included.
func (c *Client) Fetch(ctx context.Context, ticker string, r depot.Range) (map[depot.Date]decimal.Decimal, error) {
	jobj, err := c.chart(ctx, ticker, url.Values{
		"period1":  {strconv.FormatInt(r.From.Time().Unix(), 10)},
		"period2":  {strconv.FormatInt(r.To.Add(1).Time().Unix(), 10)},
		"interval": {"1d"},
		"events":   {"history"},
	})
	if err != nil {
		return nil, err
	}
	days, closes, err := series(jobj)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart of %s: %w", ticker, err)
	}
	res := make(map[depot.Date]decimal.Decimal, len(days))
	for i, d := range days {
		if v, ok := toDecimal(closes[i]); ok && r.Contains(d) {
			res[d] = v
		}
	}
	return res, nil
}

// Latest returns the last one minute close of the current session, or the
// regular market price when the session has none.
func (c *Client) Latest(ctx context.Context, ticker string) (decimal.NullDecimal, error) {
	jobj, err := c.chart(ctx, ticker, url.Values{
		"range":    {"1d"},
		"interval": {"1m"},
	})
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	_, closes, err := series(jobj)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("yahoo chart of %s: %w", ticker, err)
	}
	for i := len(closes) - 1; i >= 0; i-- {
		if v, ok := toDecimal(closes[i]); ok {
			return decimal.NewNullDecimal(v), nil
		}
	}
	if jval, err := jsonpath.Get("$.chart.result[0].meta.regularMarketPrice", jobj); err == nil {
		if v, ok := toDecimal(jval); ok {
			return decimal.NewNullDecimal(v), nil
		}
	}
	return decimal.NullDecimal{}, nil
}
