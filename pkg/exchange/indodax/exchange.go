package indodax

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"indodax/internal/circuitbreaker"
	httpClient "indodax/internal/http"
	"indodax/internal/ratelimit"
	"indodax/pkg/core"
	"indodax/pkg/exchange"
)

// IndodaxExchange implements the Exchange interface for Indodax.
// It wires the protocol (signing, parsing, classification) to the HTTP
// transport with rate limiting and a circuit breaker.
type IndodaxExchange struct {
	config         *core.Config
	directory      *core.Directory
	httpClient     *httpClient.Client
	rateLimiter    *ratelimit.RateLimiter
	circuitBreaker *circuitbreaker.Breaker
	logger         zerolog.Logger
	protocol       *Protocol
}

// Option is a functional option for configuring the IndodaxExchange.
type Option func(*Options)

// Options holds configuration options for the IndodaxExchange.
type Options struct {
	Logger zerolog.Logger
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// New creates a new IndodaxExchange instance with the given configuration
// and options. It builds the market directory from the static table and
// initializes the HTTP client, rate limiter, and circuit breaker.
func New(config *core.Config, opts ...Option) (*IndodaxExchange, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	directory, err := NewDirectory()
	if err != nil {
		return nil, fmt.Errorf("build market directory: %w", err)
	}

	client, err := httpClient.NewClient(&httpClient.Config{
		BaseURL:      ProductionURL,
		Timeout:      config.Timeout,
		MaxRetries:   config.MaxRetries,
		RetryWaitMin: config.RetryWaitMin,
		RetryWaitMax: config.RetryWaitMax,
		Logger:       options.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	var rl *ratelimit.RateLimiter
	if config.RateLimitRequests > 0 {
		rl = ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod)
	}

	var cb *circuitbreaker.Breaker
	if config.CircuitBreakerEnabled {
		cb = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
		})
	}

	return &IndodaxExchange{
		config:         config,
		directory:      directory,
		httpClient:     client,
		rateLimiter:    rl,
		circuitBreaker: cb,
		logger:         options.Logger,
		protocol:       NewProtocol(directory),
	}, nil
}

// Name returns the exchange identifier "indodax".
func (e *IndodaxExchange) Name() string {
	return exchangeName
}

// Version returns the trade API version.
func (e *IndodaxExchange) Version() string {
	return e.protocol.Version()
}

// Directory returns the market directory backing this exchange.
func (e *IndodaxExchange) Directory() *core.Directory {
	return e.directory
}

// Close releases resources used by the exchange, including the HTTP client.
func (e *IndodaxExchange) Close() error {
	if e.httpClient != nil {
		return e.httpClient.Close()
	}
	return nil
}

// GetTicker retrieves the current ticker for the specified symbol.
func (e *IndodaxExchange) GetTicker(ctx context.Context, symbol string, _ ...exchange.Option) (*core.Ticker, error) {
	market, err := e.directory.Lookup(symbol)
	if err != nil {
		return nil, err
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpGetTicker, core.Params{"symbol": symbol})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpGetTicker, market, resp)
	if err != nil {
		return nil, err
	}

	ticker, ok := result.(*core.Ticker)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return ticker, nil
}

// GetOrderBook retrieves a one-shot order book snapshot for the specified symbol.
func (e *IndodaxExchange) GetOrderBook(ctx context.Context, symbol string, _ ...exchange.Option) (*core.OrderBook, error) {
	market, err := e.directory.Lookup(symbol)
	if err != nil {
		return nil, err
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpGetOrderBook, core.Params{"symbol": symbol})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpGetOrderBook, market, resp)
	if err != nil {
		return nil, err
	}

	book, ok := result.(*core.OrderBook)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return book, nil
}

// GetTrades retrieves recent public trades for the specified symbol as an iterator.
func (e *IndodaxExchange) GetTrades(ctx context.Context, symbol string, _ ...exchange.Option) iter.Seq2[*core.Trade, error] {
	return func(yield func(*core.Trade, error) bool) {
		market, err := e.directory.Lookup(symbol)
		if err != nil {
			yield(nil, err)
			return
		}

		req, err := e.protocol.BuildRequest(ctx, core.OpGetTrades, core.Params{"symbol": symbol})
		if err != nil {
			yield(nil, fmt.Errorf("build request: %w", err))
			return
		}

		resp, err := e.doRequest(ctx, req)
		if err != nil {
			yield(nil, err)
			return
		}

		result, err := e.protocol.ParseResponse(core.OpGetTrades, market, resp)
		if err != nil {
			yield(nil, err)
			return
		}

		trades, ok := result.([]core.Trade)
		if !ok {
			yield(nil, fmt.Errorf("unexpected response type: %T", result))
			return
		}

		for i := range trades {
			if !yield(&trades[i], nil) {
				return
			}
		}
	}
}

// GetBalance retrieves account balances for all assets.
func (e *IndodaxExchange) GetBalance(ctx context.Context, _ ...exchange.Option) ([]core.Balance, error) {
	req, err := e.protocol.BuildRequest(ctx, core.OpGetBalance, core.Params{})
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doSignedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpGetBalance, nil, resp)
	if err != nil {
		return nil, err
	}

	balances, ok := result.([]core.Balance)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return balances, nil
}

// PlaceOrder submits a new limit order to the exchange.
func (e *IndodaxExchange) PlaceOrder(ctx context.Context, orderReq *exchange.OrderRequest, _ ...exchange.Option) (*core.Order, error) {
	market, err := e.directory.Lookup(orderReq.Symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{
		"symbol": orderReq.Symbol,
		"side":   orderReq.Side.String(),
		"price":  orderReq.Price.Text('f'),
		"amount": orderReq.Amount.Text('f'),
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpPlaceOrder, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doSignedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpPlaceOrder, market, resp)
	if err != nil {
		return nil, err
	}

	order, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	// The trade acknowledgment only echoes the assigned id; the rest of
	// the canonical order is known from the request.
	order.Side = orderReq.Side
	order.Price = orderReq.Price
	order.Amount = orderReq.Amount
	order.Remaining = orderReq.Amount
	var cost apd.Decimal
	if _, err := decCtx.Mul(&cost, &orderReq.Amount, &orderReq.Price); err != nil {
		return nil, fmt.Errorf("derive cost: %w", err)
	}
	order.Cost = cost

	return order, nil
}

// CancelOrder cancels an existing order. The exchange requires the order
// side alongside the id.
func (e *IndodaxExchange) CancelOrder(ctx context.Context, cancelReq *exchange.CancelRequest, _ ...exchange.Option) (*core.Order, error) {
	market, err := e.directory.Lookup(cancelReq.Symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{
		"symbol":   cancelReq.Symbol,
		"order_id": cancelReq.OrderID,
		"side":     cancelReq.Side.String(),
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpCancelOrder, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doSignedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpCancelOrder, market, resp)
	if err != nil {
		return nil, err
	}

	order, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return order, nil
}

// GetOrder retrieves the current status of an order.
func (e *IndodaxExchange) GetOrder(ctx context.Context, query *exchange.OrderQuery, _ ...exchange.Option) (*core.Order, error) {
	market, err := e.directory.Lookup(query.Symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{
		"symbol":   query.Symbol,
		"order_id": query.OrderID,
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpGetOrder, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doSignedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpGetOrder, market, resp)
	if err != nil {
		return nil, err
	}

	order, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return order, nil
}

// GetOpenOrders retrieves open orders. With an empty symbol the call
// spans all markets; the grouped response is flattened with each
// order's symbol resolved through the directory.
func (e *IndodaxExchange) GetOpenOrders(ctx context.Context, symbol string, _ ...exchange.Option) ([]core.Order, error) {
	var market *core.Market
	if symbol != "" {
		m, err := e.directory.Lookup(symbol)
		if err != nil {
			return nil, err
		}
		market = m
	}

	params := core.Params{}
	if symbol != "" {
		params["symbol"] = symbol
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpGetOpenOrders, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doSignedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpGetOpenOrders, market, resp)
	if err != nil {
		return nil, err
	}

	orders, ok := result.([]core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return orders, nil
}

// GetOrderHistory retrieves finalized orders for the specified symbol.
func (e *IndodaxExchange) GetOrderHistory(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Order, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.directory.Lookup(symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{"symbol": symbol}
	if options.Limit > 0 {
		params["limit"] = options.Limit
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpGetOrderHistory, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doSignedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpGetOrderHistory, market, resp)
	if err != nil {
		return nil, err
	}

	orders, ok := result.([]core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return orders, nil
}

// GetTradeHistory retrieves the account's own fills for the specified symbol.
func (e *IndodaxExchange) GetTradeHistory(ctx context.Context, symbol string, opts ...exchange.Option) ([]core.Trade, error) {
	options := exchange.ApplyOptions(opts...)

	market, err := e.directory.Lookup(symbol)
	if err != nil {
		return nil, err
	}

	params := core.Params{"symbol": symbol}
	if options.Limit > 0 {
		params["limit"] = options.Limit
	}
	if !options.StartTime.IsZero() {
		params["since"] = options.StartTime.Unix()
	}
	if !options.EndTime.IsZero() {
		params["end"] = options.EndTime.Unix()
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpGetTradeHistory, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doSignedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpGetTradeHistory, market, resp)
	if err != nil {
		return nil, err
	}

	trades, ok := result.([]core.Trade)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return trades, nil
}

// Withdraw requests a withdrawal to an external address. Withdrawals
// must be enabled for the API key on the exchange side.
func (e *IndodaxExchange) Withdraw(ctx context.Context, withdrawReq *exchange.WithdrawRequest, _ ...exchange.Option) (*core.Withdrawal, error) {
	requestID := withdrawReq.RequestID
	if requestID == "" {
		requestID = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	params := core.Params{
		"currency":   strings.ToLower(withdrawReq.Currency),
		"address":    withdrawReq.Address,
		"amount":     withdrawReq.Amount.Text('f'),
		"request_id": requestID,
	}
	if withdrawReq.Memo != "" {
		params["memo"] = withdrawReq.Memo
	}

	req, err := e.protocol.BuildRequest(ctx, core.OpWithdraw, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := e.doSignedRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := e.protocol.ParseResponse(core.OpWithdraw, nil, resp)
	if err != nil {
		return nil, err
	}

	withdrawal, ok := result.(*core.Withdrawal)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return withdrawal, nil
}

func (e *IndodaxExchange) doRequest(ctx context.Context, req *core.Request) (*resty.Response, error) {
	if e.rateLimiter != nil {
		if err := e.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	if e.circuitBreaker != nil && !e.circuitBreaker.Allow() {
		return nil, core.ErrCircuitBreakerOpen
	}

	var opts []httpClient.RequestOption
	for k, v := range req.Headers {
		opts = append(opts, httpClient.WithHeader(k, v))
	}
	for k, v := range req.Query {
		opts = append(opts, httpClient.WithQueryParam(k, fmt.Sprint(v)))
	}

	resp, err := e.httpClient.Get(ctx, req.Path, opts...)

	if e.circuitBreaker != nil {
		e.circuitBreaker.Record(err == nil)
	}

	return resp, err
}

func (e *IndodaxExchange) doSignedRequest(ctx context.Context, req *core.Request) (*resty.Response, error) {
	if e.config.Credentials == nil {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeConfiguration, 0,
			core.ErrNoCredentials.Error())
	}

	restyReq := e.httpClient.Request().SetContext(ctx)

	for k, v := range req.Headers {
		restyReq.SetHeader(k, v)
	}

	form := url.Values{}
	for k, v := range req.Form {
		form.Set(k, v)
	}
	restyReq.SetFormDataFromValues(form)

	if err := e.protocol.SignRequest(restyReq, *e.config.Credentials); err != nil {
		return nil, err
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	if e.circuitBreaker != nil && !e.circuitBreaker.Allow() {
		return nil, core.ErrCircuitBreakerOpen
	}

	resp, err := restyReq.Post(req.Path)

	if e.circuitBreaker != nil {
		e.circuitBreaker.Record(err == nil)
	}

	return resp, err
}
