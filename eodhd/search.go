package eodhd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/etnz/depot"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code              string     `json:"Code"`
	Exchange          string     `json:"Exchange"`
	Name              string     `json:"Name"`
	Type              string     `json:"Type"`
	Country           string     `json:"Country"`
	Currency          string     `json:"Currency"`
	ISIN              string     `json:"ISIN"`
	PreviousClose     float64    `json:"previousClose"`
	PreviousCloseDate depot.Date `json:"previousCloseDate"`
}

// Ticker returns the symbol to write in the instruments file.
func (r SearchResult) Ticker() string { return r.Code + "." + r.Exchange }

// Search searches for securities by name, ticker or ISIN.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	addr := fmt.Sprintf("%s/api/search/%s?%s", c.base, url.PathEscape(term), url.Values{
		"api_token": {c.apiKey},
		"fmt":       {"json"},
	}.Encode())

	var results []SearchResult
	if err := jwget(ctx, c.eod, addr, &results); err != nil {
		return nil, fmt.Errorf("eodhd search %q: %w", term, err)
	}
	return results, nil
}
