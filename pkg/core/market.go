package core

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Market describes one tradable pair: the exchange-native id, the
// canonical "BASE/QUOTE" symbol, the lowercase native asset codes that
// appear as JSON field-name suffixes in order and balance payloads, and
// the pair's precision and size limits.
type Market struct {
	// ID is the exchange-native pair identifier (e.g., "btc_idr").
	ID string `json:"id"`
	// Symbol is the canonical pair identifier (e.g., "BTC/IDR").
	Symbol string `json:"symbol"`
	// Base is the canonical base asset code (e.g., "BTC").
	Base string `json:"base"`
	// Quote is the canonical quote asset code (e.g., "IDR").
	Quote string `json:"quote"`
	// BaseID is the lowercase native base asset code (e.g., "btc").
	BaseID string `json:"base_id"`
	// QuoteID is the lowercase native quote asset code (e.g., "idr").
	QuoteID string `json:"quote_id"`
	// AmountPrecision is the number of decimal places for order amounts.
	AmountPrecision int `json:"amount_precision"`
	// PricePrecision is the number of decimal places for order prices.
	PricePrecision int `json:"price_precision"`
	// MinAmount is the smallest order size, in the base asset.
	MinAmount *apd.Decimal `json:"min_amount,omitempty"`
	// MaxAmount is the largest order size, in the base asset. Nil means unbounded.
	MaxAmount *apd.Decimal `json:"max_amount,omitempty"`
}

// Directory is a read-only index of the markets an exchange trades,
// keyed both by canonical symbol and by native id. It is built once at
// startup and never mutated.
type Directory struct {
	bySymbol map[string]*Market
	byID     map[string]*Market
	ordered  []*Market
}

// NewDirectory builds a Directory from a static market table.
// It fails if two markets share a symbol or a native id.
func NewDirectory(markets []Market) (*Directory, error) {
	d := &Directory{
		bySymbol: make(map[string]*Market, len(markets)),
		byID:     make(map[string]*Market, len(markets)),
		ordered:  make([]*Market, 0, len(markets)),
	}
	for i := range markets {
		m := &markets[i]
		if _, dup := d.bySymbol[m.Symbol]; dup {
			return nil, fmt.Errorf("duplicate market symbol %q", m.Symbol)
		}
		if _, dup := d.byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate market id %q", m.ID)
		}
		d.bySymbol[m.Symbol] = m
		d.byID[m.ID] = m
		d.ordered = append(d.ordered, m)
	}
	return d, nil
}

// Lookup returns the market for a canonical symbol.
func (d *Directory) Lookup(symbol string) (*Market, error) {
	m, ok := d.bySymbol[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, symbol)
	}
	return m, nil
}

// LookupByID returns the market for an exchange-native pair id. This is
// the reverse direction needed when a response groups data by native
// market id rather than canonical symbol.
func (d *Directory) LookupByID(nativeID string) (*Market, error) {
	m, ok := d.byID[nativeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, nativeID)
	}
	return m, nil
}

// Markets returns all markets in table order.
func (d *Directory) Markets() []*Market {
	out := make([]*Market, len(d.ordered))
	copy(out, d.ordered)
	return out
}

// Len returns the number of markets in the directory.
func (d *Directory) Len() int {
	return len(d.ordered)
}
