package depot

import (
	"iter"
	"strings"

	"github.com/shopspring/decimal"
)

// Instrument describes a security held in the depot.
type Instrument struct {
	ID      string              // unique key, lower case (a WKN for german securities)
	Ticker  string              // market symbol used to fetch prices, upper case, may be empty
	Name    string              // display name
	Default decimal.NullDecimal // price used for every day when there is no ticker
}

// HasTicker reports whether prices for i can be fetched from a market.
func (i Instrument) HasTicker() bool { return i.Ticker != "" }

// DisplayName returns the name or the id when there is no name.
func (i Instrument) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}

// NormalizeID returns the canonical form of an instrument id.
func NormalizeID(id string) string { return strings.ToLower(strings.TrimSpace(id)) }

// NormalizeTicker returns the canonical form of a ticker.
func NormalizeTicker(ticker string) string { return strings.ToUpper(strings.TrimSpace(ticker)) }

// Registry holds the instruments of a run. It is immutable once built.
type Registry struct {
	byID map[string]Instrument
	ids  []string // in load order
}

// NewRegistry normalizes and indexes instruments.
//
// An instrument without id, or two instruments with the same normalized id,
// is a validation error.
func NewRegistry(instruments ...Instrument) (*Registry, error) {
	r := &Registry{byID: make(map[string]Instrument, len(instruments))}
	for i, in := range instruments {
		in.ID = NormalizeID(in.ID)
		in.Ticker = NormalizeTicker(in.Ticker)
		in.Name = strings.TrimSpace(in.Name)
		if in.ID == "" {
			return nil, Validationf("instrument #%d has no id", i+1)
		}
		if _, exists := r.byID[in.ID]; exists {
			return nil, Validationf("duplicate instrument id %q", in.ID)
		}
		r.byID[in.ID] = in
		r.ids = append(r.ids, in.ID)
	}
	return r, nil
}

// Len returns the number of instruments.
func (r *Registry) Len() int { return len(r.ids) }

// Lookup returns the instrument for id, id is normalized first.
func (r *Registry) Lookup(id string) (Instrument, bool) {
	in, ok := r.byID[NormalizeID(id)]
	return in, ok
}

// IDs returns instrument ids in load order.
func (r *Registry) IDs() []string { return append([]string(nil), r.ids...) }

// All iterates over instruments in load order.
func (r *Registry) All() iter.Seq[Instrument] {
	return func(yield func(Instrument) bool) {
		for _, id := range r.ids {
			if !yield(r.byID[id]) {
				return
			}
		}
	}
}

// Name returns the display name of id, or id itself for unknown instruments.
func (r *Registry) Name(id string) string {
	if in, ok := r.Lookup(id); ok {
		return in.DisplayName()
	}
	return id
}
