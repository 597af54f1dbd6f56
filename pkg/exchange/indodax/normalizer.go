package indodax

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"github.com/cockroachdb/apd/v3"

	"indodax/pkg/core"
)

// decCtx is the decimal context for derived quantities (amount from
// cost/price, average from cost/filled). Wire values are parsed exactly;
// only divisions round.
var decCtx = apd.BaseContext.WithPrecision(20)

// Order status vocabulary on the wire differs from the canonical set.
const (
	wireStatusFilled    = "filled"
	wireStatusCancelled = "cancelled"
)

// publicTrade is one entry of the public trades endpoint. Every field
// arrives as a string; date is seconds since epoch.
type publicTrade struct {
	Date   string `json:"date"`
	Price  string `json:"price"`
	Amount string `json:"amount"`
	TID    string `json:"tid"`
	Type   string `json:"type"`
}

// depthResponse is the order book snapshot. Levels are [price, amount]
// tuples whose elements may be numbers or strings.
type depthResponse struct {
	Buy  [][]any `json:"buy"`
	Sell [][]any `json:"sell"`
}

// accountInfo is the getInfo payload. Balances are keyed by native
// asset id, with values that may be numbers (idr) or strings.
type accountInfo struct {
	ServerTime  int64          `json:"server_time"`
	Balance     map[string]any `json:"balance"`
	BalanceHold map[string]any `json:"balance_hold"`
}

// Normalizer converts Indodax wire payloads to canonical core types.
// Orders and trades carry their sizes under field names built from the
// market's asset ids, so most methods need a market descriptor; grouped
// open orders additionally resolve native pair ids through the directory.
type Normalizer struct {
	directory *core.Directory
}

// NewNormalizer creates a Normalizer backed by the given market directory.
func NewNormalizer(directory *core.Directory) *Normalizer {
	return &Normalizer{directory: directory}
}

// fieldFor builds the dynamically named JSON key the exchange uses for a
// given concern and asset id, e.g. fieldFor("vol", "btc") == "vol_btc".
func fieldFor(prefix, assetID string) string {
	return prefix + "_" + assetID
}

// localCurrencyID is the native id of the exchange's fiat currency and
// localCurrencyToken the alternate field token the exchange substitutes
// for it: an IDR-denominated order size arrives as order_rp, not
// order_idr.
const (
	localCurrencyID    = "idr"
	localCurrencyToken = "rp"
)

// NormalizeTicker converts a ticker payload to a canonical Ticker.
// The payload is the inner "ticker" object; volume keys are derived from
// the market's asset ids. Fields the exchange omitted stay nil.
func (n *Normalizer) NormalizeTicker(market *core.Market, payload map[string]any, raw []byte) *core.Ticker {
	t := &core.Ticker{
		Symbol:      market.Symbol,
		Last:        decimalField(payload, "last"),
		High:        decimalField(payload, "high"),
		Low:         decimalField(payload, "low"),
		Bid:         decimalField(payload, "buy"),
		Ask:         decimalField(payload, "sell"),
		BaseVolume:  decimalField(payload, fieldFor("vol", market.BaseID)),
		QuoteVolume: decimalField(payload, fieldFor("vol", market.QuoteID)),
		Raw:         raw,
	}
	if ts := intField(payload, "server_time"); ts > 0 {
		t.Timestamp = time.Unix(ts, 0)
	}
	return t
}

// NormalizeOrderBook converts a depth snapshot to a canonical OrderBook.
// Bids are stable-sorted descending and asks ascending by price, so
// levels at equal prices keep the order the exchange returned them in.
// A missing side yields an empty slice, never an error.
func (n *Normalizer) NormalizeOrderBook(market *core.Market, data *depthResponse, ts time.Time) (*core.OrderBook, error) {
	bids, err := normalizeLevels(data.Buy)
	if err != nil {
		return nil, fmt.Errorf("normalize bids: %w", err)
	}
	asks, err := normalizeLevels(data.Sell)
	if err != nil {
		return nil, fmt.Errorf("normalize asks: %w", err)
	}

	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].Price.Cmp(&bids[j].Price) > 0
	})
	sort.SliceStable(asks, func(i, j int) bool {
		return asks[i].Price.Cmp(&asks[j].Price) < 0
	})

	return &core.OrderBook{
		Symbol:    market.Symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: ts,
	}, nil
}

func normalizeLevels(levels [][]any) ([]core.OrderBookLevel, error) {
	result := make([]core.OrderBookLevel, 0, len(levels))
	for _, level := range levels {
		if len(level) < 2 {
			continue
		}
		price := decimalFromAny(level[0])
		amount := decimalFromAny(level[1])
		if price == nil || amount == nil {
			return nil, fmt.Errorf("unparsable level %v", level)
		}
		result = append(result, core.OrderBookLevel{Price: *price, Amount: *amount})
	}
	return result, nil
}

// NormalizeTrade converts a public trade to a canonical Trade.
// The exchange reports the timestamp in seconds and does not report the
// order type for historical trades.
func (n *Normalizer) NormalizeTrade(market *core.Market, data *publicTrade, raw []byte) (*core.Trade, error) {
	price := decimalFromAny(data.Price)
	amount := decimalFromAny(data.Amount)
	if price == nil || amount == nil {
		return nil, fmt.Errorf("unparsable trade %q", data.TID)
	}

	t := &core.Trade{
		ID:     data.TID,
		Symbol: market.Symbol,
		Side:   parseSide(data.Type),
		Price:  *price,
		Amount: *amount,
		Raw:    raw,
	}
	if sec, err := strconv.ParseInt(data.Date, 10, 64); err == nil && sec > 0 {
		t.Timestamp = time.UnixMilli(sec * 1000)
	}
	return t, nil
}

// NormalizeTrades converts a batch of public trades.
func (n *Normalizer) NormalizeTrades(market *core.Market, data []publicTrade, raw []byte) ([]core.Trade, error) {
	trades := make([]core.Trade, 0, len(data))
	for i := range data {
		t, err := n.NormalizeTrade(market, &data[i], raw)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}
	return trades, nil
}

// orderFieldKeys resolves the tokens used in the order's dynamically
// named size fields. The expected token is the asset id, except that the
// exchange substitutes "rp" when the asset is IDR; the base-side
// substitution is a documented quirk even though no IDR-based pair is
// listed today.
func orderFieldKeys(market *core.Market, payload map[string]any) (quoteKey, baseKey string) {
	quoteKey = market.QuoteID
	if market.QuoteID == localCurrencyID && hasField(payload, fieldFor("order", localCurrencyToken)) {
		quoteKey = localCurrencyToken
	}
	baseKey = market.BaseID
	if market.BaseID == localCurrencyID && hasField(payload, fieldFor("remain", localCurrencyToken)) {
		baseKey = localCurrencyToken
	}
	return quoteKey, baseKey
}

// NormalizeOrder converts an order payload to a canonical Order.
//
// The exchange does not use a uniform size field: depending on the
// market the order size arrives either quote-denominated
// (order_<quoteId>/remain_<quoteId>, amounts derived by dividing through
// the price) or base-denominated (order_<baseId>/remain_<baseId> taken
// verbatim). Both paths and the IDR field-name override must be kept.
func (n *Normalizer) NormalizeOrder(market *core.Market, payload map[string]any, raw []byte) (*core.Order, error) {
	quoteKey, baseKey := orderFieldKeys(market, payload)

	price := decimalField(payload, "price")
	if price == nil {
		price = apd.New(0, 0)
	}

	var amount, filled, remaining, cost apd.Decimal

	quoteCost := decimalField(payload, fieldFor("order", quoteKey))
	if quoteCost != nil && !quoteCost.IsZero() {
		cost = *quoteCost
		if _, err := decCtx.Quo(&amount, quoteCost, price); err != nil {
			return nil, fmt.Errorf("derive amount: %w", err)
		}
		if remainingCost := decimalField(payload, fieldFor("remain", quoteKey)); remainingCost != nil {
			if _, err := decCtx.Quo(&remaining, remainingCost, price); err != nil {
				return nil, fmt.Errorf("derive remaining: %w", err)
			}
			if _, err := decCtx.Sub(&filled, &amount, &remaining); err != nil {
				return nil, fmt.Errorf("derive filled: %w", err)
			}
		}
	} else {
		if base := decimalField(payload, fieldFor("order", baseKey)); base != nil {
			amount = *base
			cost = *base
		}
		if rem := decimalField(payload, fieldFor("remain", baseKey)); rem != nil {
			remaining = *rem
		}
		if _, err := decCtx.Sub(&filled, &amount, &remaining); err != nil {
			return nil, fmt.Errorf("derive filled: %w", err)
		}
	}

	// Never divide by a zero or unknown filled amount.
	var average *apd.Decimal
	if !filled.IsZero() {
		average = new(apd.Decimal)
		if _, err := decCtx.Quo(average, &cost, &filled); err != nil {
			return nil, fmt.Errorf("derive average: %w", err)
		}
	}

	o := &core.Order{
		ID:        stringField(payload, "order_id"),
		Symbol:    market.Symbol,
		Side:      parseSide(stringField(payload, "type")),
		Type:      core.TypeLimit,
		Price:     *price,
		Amount:    amount,
		Filled:    filled,
		Remaining: remaining,
		Cost:      cost,
		Average:   average,
		Status:    parseOrderStatus(stringField(payload, "status")),
		Raw:       raw,
	}
	if sec := intField(payload, "submit_time"); sec > 0 {
		o.Timestamp = time.UnixMilli(sec * 1000)
	}
	return o, nil
}

// NormalizeOrders converts a flat order list for one market.
func (n *Normalizer) NormalizeOrders(market *core.Market, data []map[string]any, raw []byte) ([]core.Order, error) {
	orders := make([]core.Order, 0, len(data))
	for _, payload := range data {
		o, err := n.NormalizeOrder(market, payload, raw)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// NormalizeGroupedOrders flattens the all-markets open orders response,
// where order lists are nested under native pair ids. Each id is
// resolved through the directory's reverse lookup; markets and orders
// keep the order the exchange returned them in, which is why this walks
// the AST instead of an unordered map.
func (n *Normalizer) NormalizeGroupedOrders(node *ast.Node, raw []byte) ([]core.Order, error) {
	orders := make([]core.Order, 0)

	var walkErr error
	node.ForEach(func(path ast.Sequence, group *ast.Node) bool {
		if path.Key == nil {
			walkErr = fmt.Errorf("unexpected array in grouped orders")
			return false
		}
		market, err := n.directory.LookupByID(*path.Key)
		if err != nil {
			walkErr = err
			return false
		}

		groupRaw, err := group.Raw()
		if err != nil {
			walkErr = fmt.Errorf("read group %s: %w", *path.Key, err)
			return false
		}
		var payloads []map[string]any
		if err := sonic.UnmarshalString(groupRaw, &payloads); err != nil {
			walkErr = fmt.Errorf("decode group %s: %w", *path.Key, err)
			return false
		}

		parsed, err := n.NormalizeOrders(market, payloads, raw)
		if err != nil {
			walkErr = err
			return false
		}
		orders = append(orders, parsed...)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return orders, nil
}

// NormalizeBalances converts a getInfo payload to canonical balances.
// For every asset id in the balance map, free comes from balance, used
// from balance_hold (missing means zero) and total is their sum. Output
// is sorted by asset code for determinism.
func (n *Normalizer) NormalizeBalances(info *accountInfo) ([]core.Balance, error) {
	assets := make([]string, 0, len(info.Balance))
	for asset := range info.Balance {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	balances := make([]core.Balance, 0, len(assets))
	for _, asset := range assets {
		free := decimalFromAny(info.Balance[asset])
		if free == nil {
			return nil, fmt.Errorf("unparsable balance for %s", asset)
		}
		used := decimalField(info.BalanceHold, asset)
		if used == nil {
			used = apd.New(0, 0)
		}

		var total apd.Decimal
		if _, err := decCtx.Add(&total, free, used); err != nil {
			return nil, fmt.Errorf("sum balance for %s: %w", asset, err)
		}

		balances = append(balances, core.Balance{
			Asset: assetCode(asset),
			Free:  *free,
			Used:  *used,
			Total: total,
		})
	}
	return balances, nil
}

// NormalizeMyTrade converts one private trade-history entry.
// The fill amount arrives under a field named by the base asset id (with
// the IDR token substitution), mirroring the order parser's
// base-denominated path; there is no quote-denominated variant here.
func (n *Normalizer) NormalizeMyTrade(market *core.Market, payload map[string]any, raw []byte) (*core.Trade, error) {
	baseKey := market.BaseID
	if market.BaseID == localCurrencyID && hasField(payload, localCurrencyToken) {
		baseKey = localCurrencyToken
	}

	price := decimalField(payload, "price")
	amount := decimalField(payload, baseKey)
	if price == nil || amount == nil {
		return nil, fmt.Errorf("unparsable trade %q", stringField(payload, "trade_id"))
	}

	t := &core.Trade{
		ID:      stringField(payload, "trade_id"),
		OrderID: stringField(payload, "order_id"),
		Symbol:  market.Symbol,
		Side:    parseSide(stringField(payload, "type")),
		Price:   *price,
		Amount:  *amount,
		Raw:     raw,
	}
	if sec := intField(payload, "trade_time"); sec > 0 {
		t.Timestamp = time.UnixMilli(sec * 1000)
	}
	return t, nil
}

// NormalizeMyTrades converts a batch of private trade-history entries.
func (n *Normalizer) NormalizeMyTrades(market *core.Market, data []map[string]any, raw []byte) ([]core.Trade, error) {
	trades := make([]core.Trade, 0, len(data))
	for _, payload := range data {
		t, err := n.NormalizeMyTrade(market, payload, raw)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *t)
	}
	return trades, nil
}

// NormalizeWithdrawal converts a withdrawCoin response. The canonical id
// is the transaction id when the exchange has assigned one; a pending
// withdrawal has none.
func (n *Normalizer) NormalizeWithdrawal(payload map[string]any, raw []byte) *core.Withdrawal {
	w := &core.Withdrawal{
		ID:             stringField(payload, "txid"),
		Currency:       assetCode(stringField(payload, "withdraw_currency")),
		Address:        stringField(payload, "withdraw_address"),
		Amount:         decimalField(payload, "withdraw_amount"),
		Fee:            decimalField(payload, "fee"),
		AmountAfterFee: decimalField(payload, "amount_after_fee"),
		Raw:            raw,
	}
	if sec := intField(payload, "submit_time"); sec > 0 {
		w.Timestamp = time.UnixMilli(sec * 1000)
	}
	return w
}

// orderAck builds the canonical view of a just-placed order from the
// trade response, which only echoes the assigned id. The caller fills in
// side, price and size from the request it submitted.
func (n *Normalizer) orderAck(market *core.Market, payload map[string]any, raw []byte) *core.Order {
	return &core.Order{
		ID:        stringField(payload, "order_id"),
		Symbol:    market.Symbol,
		Type:      core.TypeLimit,
		Status:    core.StatusOpen,
		Timestamp: time.Now(),
		Raw:       raw,
	}
}

// cancelAck builds the canonical view of a just-canceled order from the
// cancelOrder response.
func (n *Normalizer) cancelAck(market *core.Market, payload map[string]any, raw []byte) *core.Order {
	return &core.Order{
		ID:        stringField(payload, "order_id"),
		Symbol:    market.Symbol,
		Side:      parseSide(stringField(payload, "type")),
		Type:      core.TypeLimit,
		Status:    core.StatusCanceled,
		Timestamp: time.Now(),
		Raw:       raw,
	}
}

// parseOrderStatus translates the wire status vocabulary into the
// canonical set. Anything unrecognized is treated as still open.
func parseOrderStatus(s string) core.OrderStatus {
	switch s {
	case wireStatusFilled:
		return core.StatusClosed
	case wireStatusCancelled:
		return core.StatusCanceled
	default:
		return core.StatusOpen
	}
}

func parseSide(s string) core.OrderSide {
	if s == "sell" {
		return core.SideSell
	}
	return core.SideBuy
}

// assetCode converts a native asset id to the canonical uppercase code.
func assetCode(id string) string {
	return strings.ToUpper(id)
}

// hasField reports key presence without coercing the value: a present
// zero is different from an absent field.
func hasField(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// decimalField reads an optional decimal value from a payload. A missing
// or unparsable field yields nil, never zero, so absent data is not
// silently fabricated.
func decimalField(m map[string]any, key string) *apd.Decimal {
	v, ok := m[key]
	if !ok {
		return nil
	}
	return decimalFromAny(v)
}

func decimalFromAny(v any) *apd.Decimal {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		s = strconv.FormatInt(val, 10)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil
	}
	return d
}

// stringField reads a value that may arrive as a string or a number and
// returns its textual form.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// intField reads an integer that may arrive as a number or string.
func intField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return i
	case int64:
		return v
	default:
		return 0
	}
}
