package renderer

import (
	"github.com/etnz/depot"
	"github.com/shopspring/decimal"
)

// PositionRow is one line of the positions table.
type PositionRow struct {
	Instrument string
	Name       string
	Account    string // empty when summed over accounts
	Shares     decimal.Decimal
	Price      decimal.NullDecimal
	Value      decimal.NullDecimal
}

// Positions is the content of a positions document.
type Positions struct {
	Date      depot.Date
	ByAccount bool
	Rows      []PositionRow
	Total     decimal.Decimal // over priced rows
	Unpriced  int
}

// NewPositions builds the positions held on a day, out of a (date,
// instrument, account) position table and a (date, instrument) price table.
// Rows follow the registry order, unregistered instruments come last.
func NewPositions(reg *depot.Registry, positions, prices *depot.Table, on depot.Date, byAccount bool) (*Positions, error) {
	shares := positions
	if !byAccount {
		var err error
		if shares, err = depot.AggregateAccounts(positions); err != nil {
			return nil, err
		}
	} else if !positions.HasKeys(depot.KeyDate, depot.KeyInstrument, depot.KeyAccount) {
		return nil, depot.Validationf("positions keyed by %v, want [date instrument account]", positions.Keys())
	}

	p := &Positions{Date: on, ByAccount: byAccount, Total: decimal.Zero}
	accounts := []string{""}
	if byAccount {
		accounts = shares.Accounts()
	}
	for _, id := range instrumentOrder(reg, shares.Instruments()) {
		price, _ := prices.At(on, id)
		for _, account := range accounts {
			count, ok := shares.Get(on, id, account)
			if !ok || !count.Valid || count.Decimal.IsZero() {
				continue
			}
			row := PositionRow{
				Instrument: id,
				Name:       reg.Name(id),
				Account:    account,
				Shares:     count.Decimal,
				Price:      price,
			}
			if price.Valid {
				row.Value = decimal.NewNullDecimal(count.Decimal.Mul(price.Decimal))
				p.Total = p.Total.Add(row.Value.Decimal)
			} else {
				p.Unpriced++
			}
			p.Rows = append(p.Rows, row)
		}
	}
	return p, nil
}

// instrumentOrder returns held in registry order, then the others.
func instrumentOrder(reg *depot.Registry, held []string) []string {
	set := make(map[string]bool, len(held))
	for _, id := range held {
		set[id] = true
	}
	order := make([]string, 0, len(held))
	for _, id := range reg.IDs() {
		if set[id] {
			order = append(order, id)
			delete(set, id)
		}
	}
	for _, id := range held {
		if set[id] {
			order = append(order, id)
		}
	}
	return order
}

// HistoryDay is one line of the history summary.
type HistoryDay struct {
	Date   depot.Date
	Value  decimal.Decimal
	Change decimal.Decimal // from the previous line
}

// HistorySummary is the total depot value over the last days.
type HistorySummary struct {
	From, To depot.Date
	Days     []HistoryDay
}

// NewHistorySummary keeps the last n days of h, all of them when n <= 0.
func NewHistorySummary(h *depot.History, n int) *HistorySummary {
	r := h.Days()
	s := &HistorySummary{From: r.From, To: r.To}
	if r.Empty() {
		return s
	}
	from := r.From
	if n > 0 && r.Len() > n {
		from = r.To.Add(1 - n)
	}
	prev := h.Total(from.Add(-1))
	for d := range depot.NewRange(from, r.To).Days() {
		v := h.Total(d)
		s.Days = append(s.Days, HistoryDay{Date: d, Value: v, Change: v.Sub(prev)})
		prev = v
	}
	return s
}
