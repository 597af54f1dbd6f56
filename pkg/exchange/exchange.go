package exchange

import (
	"context"
	"iter"

	"github.com/cockroachdb/apd/v3"

	"indodax/pkg/core"
)

// Exchange defines the unified interface for interacting with a
// cryptocurrency exchange over REST: market data retrieval, account
// management and order execution. Every call is one request/response
// round trip; streaming is out of scope.
type Exchange interface {
	Name() string
	Version() string

	GetTicker(ctx context.Context, symbol string, opts ...Option) (*core.Ticker, error)
	GetOrderBook(ctx context.Context, symbol string, opts ...Option) (*core.OrderBook, error)
	GetTrades(ctx context.Context, symbol string, opts ...Option) iter.Seq2[*core.Trade, error]

	GetBalance(ctx context.Context, opts ...Option) ([]core.Balance, error)

	PlaceOrder(ctx context.Context, req *OrderRequest, opts ...Option) (*core.Order, error)
	CancelOrder(ctx context.Context, req *CancelRequest, opts ...Option) (*core.Order, error)
	GetOrder(ctx context.Context, req *OrderQuery, opts ...Option) (*core.Order, error)
	GetOpenOrders(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	GetOrderHistory(ctx context.Context, symbol string, opts ...Option) ([]core.Order, error)
	GetTradeHistory(ctx context.Context, symbol string, opts ...Option) ([]core.Trade, error)

	Withdraw(ctx context.Context, req *WithdrawRequest, opts ...Option) (*core.Withdrawal, error)
}

// OrderRequest contains the parameters required to place a new order on an exchange.
type OrderRequest struct {
	Symbol string
	Side   core.OrderSide
	Price  apd.Decimal
	// Amount is the order size in the base asset. For buy orders the
	// exchange expects the spend denominated in the quote asset instead;
	// the protocol derives it as Amount*Price.
	Amount apd.Decimal
}

// CancelRequest contains the parameters required to cancel an existing order.
type CancelRequest struct {
	Symbol  string
	OrderID string
	Side    core.OrderSide
}

// OrderQuery contains the parameters required to query order status.
type OrderQuery struct {
	Symbol  string
	OrderID string
}

// WithdrawRequest contains the parameters required to withdraw an asset
// to an external address.
type WithdrawRequest struct {
	Currency string
	Address  string
	Amount   apd.Decimal
	// Memo is the destination tag for assets that require one.
	Memo string
	// RequestID identifies the withdrawal for idempotent retries.
	RequestID string
}
