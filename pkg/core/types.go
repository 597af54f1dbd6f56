package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell an asset.
	SideSell
)

// String returns the string representation of the order side ("buy" or "sell").
func (s OrderSide) String() string {
	return [...]string{"buy", "sell"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both lowercase and uppercase formats.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	str := string(data)
	switch str {
	case `"buy"`, `"BUY"`:
		*s = SideBuy
	case `"sell"`, `"SELL"`:
		*s = SideSell
	}
	return nil
}

// OrderType represents the type of order to place on an exchange.
// Indodax only supports limit orders on its trade API.
type OrderType int

// Order type constants define how an order is executed.
const (
	// TypeLimit executes at a specified price or better.
	TypeLimit OrderType = iota
	// TypeMarket executes immediately at the best available price.
	TypeMarket
)

// String returns the string representation of the order type.
func (t OrderType) String() string {
	return [...]string{"limit", "market"}[t]
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	str := string(data)
	switch str {
	case `"limit"`, `"LIMIT"`:
		*t = TypeLimit
	case `"market"`, `"MARKET"`:
		*t = TypeMarket
	}
	return nil
}

// OrderStatus represents the canonical state of an order.
// Exchange-specific vocabularies ("filled", "cancelled") are translated
// into this set by the normalizer.
type OrderStatus int

// Order status constants define the lifecycle state of an order.
const (
	// StatusOpen indicates the order is resting on the book.
	StatusOpen OrderStatus = iota
	// StatusClosed indicates the order has been completely filled.
	StatusClosed
	// StatusCanceled indicates the order has been canceled.
	StatusCanceled
)

// String returns the string representation of the order status.
func (s OrderStatus) String() string {
	return [...]string{"open", "closed", "canceled"}[s]
}

// IsTerminal returns true if the order is in a terminal state (no further changes possible).
func (s OrderStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCanceled
}

// MarshalJSON implements json.Marshaler for OrderStatus.
func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderStatus.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	str := string(data)
	switch str {
	case `"open"`, `"OPEN"`:
		*s = StatusOpen
	case `"closed"`, `"CLOSED"`:
		*s = StatusClosed
	case `"canceled"`, `"CANCELED"`:
		*s = StatusCanceled
	}
	return nil
}

// Ticker represents a point-in-time market snapshot for a trading pair.
// Price and volume fields are nil when the exchange omitted them; a
// missing quote is never silently reported as zero.
type Ticker struct {
	// Symbol is the trading pair identifier (e.g., "BTC/IDR").
	Symbol string `json:"symbol"`
	// Bid is the highest price a buyer is willing to pay.
	Bid *apd.Decimal `json:"bid,omitempty"`
	// Ask is the lowest price a seller is willing to accept.
	Ask *apd.Decimal `json:"ask,omitempty"`
	// Last is the price of the most recent trade.
	Last *apd.Decimal `json:"last,omitempty"`
	// High is the highest price in the last 24 hours.
	High *apd.Decimal `json:"high,omitempty"`
	// Low is the lowest price in the last 24 hours.
	Low *apd.Decimal `json:"low,omitempty"`
	// BaseVolume is the 24h volume denominated in the base asset.
	BaseVolume *apd.Decimal `json:"base_volume,omitempty"`
	// QuoteVolume is the 24h volume denominated in the quote asset.
	QuoteVolume *apd.Decimal `json:"quote_volume,omitempty"`
	// Timestamp is when this ticker data was generated.
	Timestamp time.Time `json:"timestamp"`
	// Raw is the original response payload for diagnostics.
	Raw []byte `json:"-"`
}

// Order represents an exchange order with all its details.
// Amount, Filled, Remaining and Cost are reconstructed from the
// exchange's currency-keyed size fields by the normalizer.
type Order struct {
	// ID is the exchange-assigned order identifier.
	ID string `json:"id"`
	// Symbol is the trading pair for this order.
	Symbol string `json:"symbol"`
	// Side indicates whether this is a buy or sell order.
	Side OrderSide `json:"side"`
	// Type defines how the order executes. Always limit on this exchange.
	Type OrderType `json:"type"`
	// Price is the limit price.
	Price apd.Decimal `json:"price"`
	// Amount is the total order size in the base asset.
	Amount apd.Decimal `json:"amount"`
	// Filled is the executed portion of the order.
	Filled apd.Decimal `json:"filled"`
	// Remaining is the unfilled portion of the order.
	Remaining apd.Decimal `json:"remaining"`
	// Cost is the order value in the quote asset.
	Cost apd.Decimal `json:"cost"`
	// Average is Cost/Filled when anything has filled, nil otherwise.
	Average *apd.Decimal `json:"average,omitempty"`
	// Status is the canonical state of the order.
	Status OrderStatus `json:"status"`
	// Timestamp is when the order was submitted.
	Timestamp time.Time `json:"timestamp"`
	// Raw is the original response payload for diagnostics.
	Raw []byte `json:"-"`
}

// Balance represents account balance for a single asset.
// Total is always Free + Used.
type Balance struct {
	// Asset is the currency or token symbol (e.g., "BTC", "IDR").
	Asset string `json:"asset"`
	// Free is the available balance for trading.
	Free apd.Decimal `json:"free"`
	// Used is the balance locked in open orders.
	Used apd.Decimal `json:"used"`
	// Total is the sum of free and used balances.
	Total apd.Decimal `json:"total"`
}

// Trade represents one historical fill.
type Trade struct {
	// ID is the exchange-assigned trade identifier.
	ID string `json:"id"`
	// OrderID links this trade to its parent order, when known.
	OrderID string `json:"order_id,omitempty"`
	// Symbol is the trading pair for this trade.
	Symbol string `json:"symbol"`
	// Side indicates whether this was a buy or sell.
	Side OrderSide `json:"side"`
	// Price is the execution price of this trade.
	Price apd.Decimal `json:"price"`
	// Amount is the quantity executed, in the base asset.
	Amount apd.Decimal `json:"amount"`
	// Timestamp is when the trade was executed.
	Timestamp time.Time `json:"timestamp"`
	// Raw is the original response payload for diagnostics.
	Raw []byte `json:"-"`
}

// OrderBookLevel represents a single price level in the order book.
type OrderBookLevel struct {
	// Price is the limit price for this level.
	Price apd.Decimal `json:"price"`
	// Amount is the total quantity available at this price.
	Amount apd.Decimal `json:"amount"`
}

// OrderBook represents a one-shot snapshot of the book for a trading pair.
// Bids are sorted by price descending and asks ascending; ties keep the
// order the exchange returned them in.
type OrderBook struct {
	// Symbol is the trading pair for this order book.
	Symbol string `json:"symbol"`
	// Bids are buy orders sorted by price descending.
	Bids []OrderBookLevel `json:"bids"`
	// Asks are sell orders sorted by price ascending.
	Asks []OrderBookLevel `json:"asks"`
	// Timestamp is when this snapshot was taken.
	Timestamp time.Time `json:"timestamp"`
}

// Withdrawal represents the result of a withdrawal request.
type Withdrawal struct {
	// ID is the transaction id, empty when the exchange has not assigned one yet.
	ID string `json:"id,omitempty"`
	// Currency is the asset being withdrawn.
	Currency string `json:"currency"`
	// Address is the destination address.
	Address string `json:"address"`
	// Amount is the requested withdrawal amount.
	Amount *apd.Decimal `json:"amount,omitempty"`
	// Fee is the withdrawal fee charged by the exchange.
	Fee *apd.Decimal `json:"fee,omitempty"`
	// AmountAfterFee is the amount that will arrive at the destination.
	AmountAfterFee *apd.Decimal `json:"amount_after_fee,omitempty"`
	// Timestamp is when the withdrawal was submitted.
	Timestamp time.Time `json:"timestamp"`
	// Raw is the original response payload for diagnostics.
	Raw []byte `json:"-"`
}
