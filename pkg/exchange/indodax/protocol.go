package indodax

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"github.com/cockroachdb/apd/v3"
	"resty.dev/v3"

	"indodax/pkg/core"
)

const (
	exchangeName = "indodax"

	// ProductionURL is the REST API base. The exchange has no sandbox.
	ProductionURL = "https://indodax.com"

	publicPrefix = "/api"
	tapiPath     = "/tapi"
)

// Trade API method names.
const (
	methodGetInfo      = "getInfo"
	methodTrade        = "trade"
	methodCancelOrder  = "cancelOrder"
	methodGetOrder     = "getOrder"
	methodOpenOrders   = "openOrders"
	methodOrderHistory = "orderHistory"
	methodTradeHistory = "tradeHistory"
	methodWithdraw     = "withdrawCoin"
)

// Protocol implements the core.Protocol interface for Indodax.
// It builds public and signed trade-API requests, authenticates them,
// and normalizes responses. The nonce source is owned by the protocol
// instance, one per credential set.
type Protocol struct {
	directory  *core.Directory
	normalizer *Normalizer
	nonces     *NonceSource
}

// NewProtocol creates an Indodax protocol instance over the given
// market directory.
func NewProtocol(directory *core.Directory) *Protocol {
	return &Protocol{
		directory:  directory,
		normalizer: NewNormalizer(directory),
		nonces:     NewNonceSource(),
	}
}

// Name returns the protocol identifier "indodax".
func (p *Protocol) Name() string {
	return exchangeName
}

// Version returns the trade API version string.
func (p *Protocol) Version() string {
	return "1.8"
}

// BaseURL returns the REST API base URL.
func (p *Protocol) BaseURL() string {
	return ProductionURL
}

// SupportedOperations returns the list of operations supported by this protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetTicker,
		core.OpGetOrderBook,
		core.OpGetTrades,
		core.OpGetBalance,
		core.OpPlaceOrder,
		core.OpCancelOrder,
		core.OpGetOrder,
		core.OpGetOpenOrders,
		core.OpGetOrderHistory,
		core.OpGetTradeHistory,
		core.OpWithdraw,
	}
}

// RateLimits returns the rate limit configuration for the Indodax API.
func (p *Protocol) RateLimits() core.RateLimitConfig {
	return core.RateLimitConfig{
		RequestsPerSecond: 3,
		OrdersPerSecond:   1,
		Burst:             10,
	}
}

// BuildRequest constructs an exchange-specific HTTP request for the
// given operation. Public requests substitute the native pair id into
// the URL path; private requests carry the trade-API method and
// parameters as form fields that SignRequest later nonce-stamps and signs.
func (p *Protocol) BuildRequest(ctx context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	switch op {
	case core.OpGetTicker:
		return p.buildPublicRequest(params, "ticker")
	case core.OpGetOrderBook:
		return p.buildPublicRequest(params, "depth")
	case core.OpGetTrades:
		return p.buildPublicRequest(params, "trades")
	case core.OpGetBalance:
		return p.buildGetBalanceRequest(params)
	case core.OpPlaceOrder:
		return p.buildPlaceOrderRequest(params)
	case core.OpCancelOrder:
		return p.buildCancelOrderRequest(params)
	case core.OpGetOrder:
		return p.buildGetOrderRequest(params)
	case core.OpGetOpenOrders:
		return p.buildGetOpenOrdersRequest(params)
	case core.OpGetOrderHistory:
		return p.buildGetOrderHistoryRequest(params)
	case core.OpGetTradeHistory:
		return p.buildGetTradeHistoryRequest(params)
	case core.OpWithdraw:
		return p.buildWithdrawRequest(params)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

// SignRequest authenticates a trade-API request. It stamps a fresh nonce
// into the form body, encodes the body with its fields in stable sorted
// order, and emits the Key header plus the hex HMAC-SHA512 signature of
// the exact encoded body in the Sign header.
//
// Missing credentials are a configuration error: the request is rejected
// here, before any I/O, as opposed to the authentication error the
// server reports for a bad key or signature.
func (p *Protocol) SignRequest(req *resty.Request, creds core.Credentials) error {
	if creds.APIKey == "" || creds.SecretKey == "" {
		return core.NewExchangeError(exchangeName, core.ErrorTypeConfiguration, 0,
			"api key and secret are required for private endpoints")
	}

	form := req.FormData
	if form == nil {
		form = url.Values{}
	}
	form.Set("nonce", strconv.FormatInt(p.nonces.Next(), 10))

	// url.Values.Encode sorts by key, so the signed body and the sent
	// body are byte-identical.
	body := form.Encode()

	req.SetFormDataFromValues(form)
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	req.SetHeader("Key", creds.APIKey)
	req.SetHeader("Sign", signHMAC512(body, creds.SecretKey))

	return nil
}

// ParseResponse classifies the HTTP response and normalizes it to the
// canonical type for the operation. Classification runs first: the trade
// API reports failures inside a success envelope regardless of HTTP
// status.
func (p *Protocol) ParseResponse(op core.Operation, market *core.Market, resp *resty.Response) (any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}
	body := resp.Bytes()

	if err := classifyResponse(op, resp.StatusCode(), body); err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 400 {
		return nil, core.NewExchangeError(exchangeName, core.ErrorTypeServerError, resp.StatusCode(),
			fmt.Sprintf("HTTP error: %s", resp.Status())).WithRaw(string(body))
	}

	n := p.normalizer

	switch op {
	case core.OpGetTicker:
		if market == nil {
			return nil, fmt.Errorf("ticker requires a market")
		}
		var data struct {
			Ticker map[string]any `json:"ticker"`
		}
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal ticker: %w", err)
		}
		return n.NormalizeTicker(market, data.Ticker, body), nil

	case core.OpGetOrderBook:
		if market == nil {
			return nil, fmt.Errorf("order book requires a market")
		}
		var data depthResponse
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal depth: %w", err)
		}
		return n.NormalizeOrderBook(market, &data, time.Now())

	case core.OpGetTrades:
		if market == nil {
			return nil, fmt.Errorf("trades require a market")
		}
		var data []publicTrade
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal trades: %w", err)
		}
		return n.NormalizeTrades(market, data, body)

	case core.OpGetBalance:
		var data struct {
			Return accountInfo `json:"return"`
		}
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal account info: %w", err)
		}
		return n.NormalizeBalances(&data.Return)

	case core.OpPlaceOrder:
		if market == nil {
			return nil, fmt.Errorf("order placement requires a market")
		}
		payload, err := returnPayload(body)
		if err != nil {
			return nil, err
		}
		return n.orderAck(market, payload, body), nil

	case core.OpCancelOrder:
		if market == nil {
			return nil, fmt.Errorf("order cancellation requires a market")
		}
		payload, err := returnPayload(body)
		if err != nil {
			return nil, err
		}
		return n.cancelAck(market, payload, body), nil

	case core.OpGetOrder:
		if market == nil {
			return nil, fmt.Errorf("order lookup requires a market")
		}
		var data struct {
			Return struct {
				Order map[string]any `json:"order"`
			} `json:"return"`
		}
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal order: %w", err)
		}
		return n.NormalizeOrder(market, data.Return.Order, body)

	case core.OpGetOpenOrders:
		return p.parseOpenOrders(market, body)

	case core.OpGetOrderHistory:
		if market == nil {
			return nil, fmt.Errorf("order history requires a market")
		}
		var data struct {
			Return struct {
				Orders []map[string]any `json:"orders"`
			} `json:"return"`
		}
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal order history: %w", err)
		}
		return n.NormalizeOrders(market, data.Return.Orders, body)

	case core.OpGetTradeHistory:
		if market == nil {
			return nil, fmt.Errorf("trade history requires a market")
		}
		var data struct {
			Return struct {
				Trades []map[string]any `json:"trades"`
			} `json:"return"`
		}
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal trade history: %w", err)
		}
		return n.NormalizeMyTrades(market, data.Return.Trades, body)

	case core.OpWithdraw:
		var payload map[string]any
		if err := sonic.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal withdrawal: %w", err)
		}
		return n.NormalizeWithdrawal(payload, body), nil

	default:
		var result any
		if err := sonic.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		return result, nil
	}
}

// parseOpenOrders handles both shapes of the openOrders response: a flat
// array when a pair was requested, and lists nested under native pair
// ids when the call spanned all markets.
func (p *Protocol) parseOpenOrders(market *core.Market, body []byte) ([]core.Order, error) {
	node, err := sonic.Get(body, "return", "orders")
	if err != nil {
		// No orders key at all means no open orders.
		return []core.Order{}, nil
	}
	if t := node.TypeSafe(); t == ast.V_NULL || t == ast.V_NONE {
		return []core.Order{}, nil
	}

	if market != nil {
		raw, err := node.Raw()
		if err != nil {
			return nil, fmt.Errorf("read open orders: %w", err)
		}
		var payloads []map[string]any
		if err := sonic.UnmarshalString(raw, &payloads); err != nil {
			return nil, fmt.Errorf("decode open orders: %w", err)
		}
		return p.normalizer.NormalizeOrders(market, payloads, body)
	}

	return p.normalizer.NormalizeGroupedOrders(&node, body)
}

// returnPayload decodes the "return" object of a trade-API acknowledgment.
func returnPayload(body []byte) (map[string]any, error) {
	var data struct {
		Return map[string]any `json:"return"`
	}
	if err := sonic.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return data.Return, nil
}

func (p *Protocol) buildPublicRequest(params core.Params, suffix string) (*core.Request, error) {
	market, err := p.marketParam(params)
	if err != nil {
		return nil, err
	}

	req := core.NewRequest(http.MethodGet, fmt.Sprintf("%s/%s/%s", publicPrefix, market.ID, suffix))
	req.SetWeight(1)
	return req, nil
}

func (p *Protocol) buildGetBalanceRequest(_ core.Params) (*core.Request, error) {
	return p.newPrivateRequest(methodGetInfo), nil
}

func (p *Protocol) buildPlaceOrderRequest(params core.Params) (*core.Request, error) {
	market, err := p.marketParam(params)
	if err != nil {
		return nil, err
	}
	side, err := getRequiredStringParam(params, "side")
	if err != nil {
		return nil, err
	}
	price, err := getRequiredStringParam(params, "price")
	if err != nil {
		return nil, err
	}
	amount, err := getRequiredStringParam(params, "amount")
	if err != nil {
		return nil, err
	}

	req := p.newPrivateRequest(methodTrade)
	req.SetForm("pair", market.ID)
	req.SetForm("type", side)
	req.SetForm("price", price)

	// Buys are denominated in the quote asset (spend = price * amount),
	// sells in the base asset.
	if side == core.SideBuy.String() {
		spend, err := mulDecimalStrings(price, amount)
		if err != nil {
			return nil, fmt.Errorf("derive spend: %w", err)
		}
		req.SetForm(market.QuoteID, spend)
	} else {
		req.SetForm(market.BaseID, amount)
	}

	return req, nil
}

func (p *Protocol) buildCancelOrderRequest(params core.Params) (*core.Request, error) {
	market, err := p.marketParam(params)
	if err != nil {
		return nil, err
	}
	orderID, err := getRequiredStringParam(params, "order_id")
	if err != nil {
		return nil, err
	}
	side, err := getRequiredStringParam(params, "side")
	if err != nil {
		return nil, err
	}

	req := p.newPrivateRequest(methodCancelOrder)
	req.SetForm("pair", market.ID)
	req.SetForm("order_id", orderID)
	req.SetForm("type", side)
	return req, nil
}

func (p *Protocol) buildGetOrderRequest(params core.Params) (*core.Request, error) {
	market, err := p.marketParam(params)
	if err != nil {
		return nil, err
	}
	orderID, err := getRequiredStringParam(params, "order_id")
	if err != nil {
		return nil, err
	}

	req := p.newPrivateRequest(methodGetOrder)
	req.SetForm("pair", market.ID)
	req.SetForm("order_id", orderID)
	return req, nil
}

func (p *Protocol) buildGetOpenOrdersRequest(params core.Params) (*core.Request, error) {
	req := p.newPrivateRequest(methodOpenOrders)

	// Without a pair the exchange returns orders for all markets,
	// grouped by native pair id.
	if symbol, ok := params["symbol"].(string); ok && symbol != "" {
		market, err := p.directory.Lookup(symbol)
		if err != nil {
			return nil, err
		}
		req.SetForm("pair", market.ID)
	}
	return req, nil
}

func (p *Protocol) buildGetOrderHistoryRequest(params core.Params) (*core.Request, error) {
	market, err := p.marketParam(params)
	if err != nil {
		return nil, err
	}

	req := p.newPrivateRequest(methodOrderHistory)
	req.SetForm("pair", market.ID)

	if limit, ok := params["limit"].(int); ok && limit > 0 {
		req.SetForm("count", strconv.Itoa(limit))
	}
	return req, nil
}

func (p *Protocol) buildGetTradeHistoryRequest(params core.Params) (*core.Request, error) {
	market, err := p.marketParam(params)
	if err != nil {
		return nil, err
	}

	req := p.newPrivateRequest(methodTradeHistory)
	req.SetForm("pair", market.ID)

	if limit, ok := params["limit"].(int); ok && limit > 0 {
		req.SetForm("count", strconv.Itoa(limit))
	}
	if since, ok := params["since"].(int64); ok && since > 0 {
		req.SetForm("since", strconv.FormatInt(since, 10))
	}
	if end, ok := params["end"].(int64); ok && end > 0 {
		req.SetForm("end", strconv.FormatInt(end, 10))
	}
	return req, nil
}

func (p *Protocol) buildWithdrawRequest(params core.Params) (*core.Request, error) {
	currency, err := getRequiredStringParam(params, "currency")
	if err != nil {
		return nil, err
	}
	address, err := getRequiredStringParam(params, "address")
	if err != nil {
		return nil, err
	}
	amount, err := getRequiredStringParam(params, "amount")
	if err != nil {
		return nil, err
	}
	requestID, err := getRequiredStringParam(params, "request_id")
	if err != nil {
		return nil, err
	}

	req := p.newPrivateRequest(methodWithdraw)
	req.SetForm("currency", currency)
	req.SetForm("withdraw_address", address)
	req.SetForm("withdraw_amount", amount)
	req.SetForm("request_id", requestID)

	if memo, ok := params["memo"].(string); ok && memo != "" {
		req.SetForm("withdraw_memo", memo)
	}
	return req, nil
}

func (p *Protocol) newPrivateRequest(method string) *core.Request {
	req := core.NewRequest(http.MethodPost, tapiPath)
	req.SetRequireAuth(true)
	req.SetForm("method", method)
	req.SetWeight(1)
	return req
}

func (p *Protocol) marketParam(params core.Params) (*core.Market, error) {
	symbol, err := getRequiredStringParam(params, "symbol")
	if err != nil {
		return nil, err
	}
	return p.directory.Lookup(symbol)
}

func signHMAC512(message, secret string) string {
	h := hmac.New(sha512.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

func mulDecimalStrings(a, b string) (string, error) {
	da, _, err := apd.NewFromString(a)
	if err != nil {
		return "", err
	}
	db, _, err := apd.NewFromString(b)
	if err != nil {
		return "", err
	}
	var out apd.Decimal
	if _, err := decCtx.Mul(&out, da, db); err != nil {
		return "", err
	}
	return out.Text('f'), nil
}

func getRequiredStringParam(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}

	if str == "" {
		return "", fmt.Errorf("parameter %s cannot be empty", key)
	}

	return str, nil
}
