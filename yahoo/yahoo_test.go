package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/etnz/depot"
	"github.com/shopspring/decimal"
)

const dailyChart = `{"chart":{"result":[{
	"meta":{"currency":"EUR","symbol":"EUNL.DE","gmtoffset":7200,"regularMarketPrice":102.5},
	"timestamp":[1744614000,1744700400,1744842600],
	"indicators":{"quote":[{"close":[98.5,null,101.25]}]}
}],"error":null}}`

const intradayChart = `{"chart":{"result":[{
	"meta":{"currency":"EUR","symbol":"EUNL.DE","gmtoffset":7200,"regularMarketPrice":102.5},
	"timestamp":[1745326800,1745326860],
	"indicators":{"quote":[{"close":[102.25,null]}]}
}],"error":null}}`

const closedChart = `{"chart":{"result":[{
	"meta":{"currency":"EUR","symbol":"EUNL.DE","gmtoffset":7200,"regularMarketPrice":102.5},
	"indicators":{"quote":[{}]}
}],"error":null}}`

const notFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "no agent", http.StatusForbidden)
			return
		}
		q := r.URL.Query()
		switch r.URL.Path {
		case "/v8/finance/chart/EUNL.DE":
			if q.Get("interval") == "1m" {
				fmt.Fprint(w, intradayChart)
				return
			}
			if q.Get("period1") != "1744588800" || q.Get("period2") != "1744934400" {
				http.Error(w, "bad period "+r.URL.RawQuery, http.StatusBadRequest)
				return
			}
			fmt.Fprint(w, dailyChart)
		case "/v8/finance/chart/CLOSED.DE":
			fmt.Fprint(w, closedChart)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, notFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch(t *testing.T) {
	c := New(newServer(t).URL, nil)
	r := depot.NewRange(depot.MustParse("2025-04-14"), depot.MustParse("2025-04-17"))
	closes, err := c.Fetch(context.Background(), "EUNL.DE", r)
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}
	want := map[depot.Date]string{
		depot.MustParse("2025-04-14"): "98.5",
		depot.MustParse("2025-04-17"): "101.25", // late print shifted into the exchange day
	}
	if len(closes) != len(want) {
		t.Fatalf("Fetch() = %v, want %v", closes, want)
	}
	for d, v := range want {
		if !closes[d].Equal(decimal.RequireFromString(v)) {
			t.Errorf("Fetch()[%v] = %v, want %s", d, closes[d], v)
		}
	}
}

func TestClient_Fetch_NotFound(t *testing.T) {
	c := New(newServer(t).URL, nil)
	r := depot.NewRange(depot.MustParse("2025-04-14"), depot.MustParse("2025-04-17"))
	if _, err := c.Fetch(context.Background(), "GONE.DE", r); err == nil {
		t.Error("Fetch() of an unknown symbol should fail")
	}
}

func TestClient_Latest(t *testing.T) {
	c := New(newServer(t).URL, nil)
	tests := []struct {
		ticker string
		want   string
	}{
		{"EUNL.DE", "102.25"},  // last non null minute
		{"CLOSED.DE", "102.5"}, // no session, market price
	}
	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			got, err := c.Latest(context.Background(), tt.ticker)
			if err != nil {
				t.Fatalf("Latest(%s) unexpected error: %v", tt.ticker, err)
			}
			if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Latest(%s) = %v, want %s", tt.ticker, got, tt.want)
			}
		})
	}
	if _, err := c.Latest(context.Background(), "GONE.DE"); err == nil {
		t.Error("Latest() of an unknown symbol should fail")
	}
}
