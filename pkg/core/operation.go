package core

// Operation represents a type of action that can be performed on an exchange.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpGetTicker retrieves current market ticker data for a symbol.
	OpGetTicker Operation = iota
	// OpGetOrderBook retrieves a one-shot order book snapshot.
	OpGetOrderBook
	// OpGetTrades retrieves recent public trades for a symbol.
	OpGetTrades
	// OpGetBalance retrieves account balance information.
	OpGetBalance
	// OpPlaceOrder submits a new limit order to the exchange.
	OpPlaceOrder
	// OpCancelOrder cancels an existing order.
	OpCancelOrder
	// OpGetOrder retrieves details of a specific order.
	OpGetOrder
	// OpGetOpenOrders retrieves open orders, for one market or all of them.
	OpGetOpenOrders
	// OpGetOrderHistory retrieves finalized orders.
	OpGetOrderHistory
	// OpGetTradeHistory retrieves the account's own fills.
	OpGetTradeHistory
	// OpWithdraw requests a withdrawal to an external address.
	OpWithdraw
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return [...]string{
		"GET_TICKER",
		"GET_ORDER_BOOK",
		"GET_TRADES",
		"GET_BALANCE",
		"PLACE_ORDER",
		"CANCEL_ORDER",
		"GET_ORDER",
		"GET_OPEN_ORDERS",
		"GET_ORDER_HISTORY",
		"GET_TRADE_HISTORY",
		"WITHDRAW",
	}[o]
}
