package indodax

import (
	"github.com/cockroachdb/apd/v3"

	"indodax/pkg/core"
)

// marketTable is the static directory of tradable pairs. Indodax does
// not expose a machine-readable market list on its public API, so the
// table is maintained by hand. BaseID and QuoteID are the lowercase
// native asset codes the exchange embeds into JSON field names
// (vol_btc, order_idr, remain_btc, ...).
var marketTable = []core.Market{
	{ID: "btc_idr", Symbol: "BTC/IDR", Base: "BTC", Quote: "IDR", BaseID: "btc", QuoteID: "idr",
		AmountPrecision: 8, PricePrecision: 0, MinAmount: dec("0.0001"), MaxAmount: dec("1000")},
	{ID: "eth_idr", Symbol: "ETH/IDR", Base: "ETH", Quote: "IDR", BaseID: "eth", QuoteID: "idr",
		AmountPrecision: 8, PricePrecision: 0, MinAmount: dec("0.001"), MaxAmount: dec("10000")},
	{ID: "usdt_idr", Symbol: "USDT/IDR", Base: "USDT", Quote: "IDR", BaseID: "usdt", QuoteID: "idr",
		AmountPrecision: 6, PricePrecision: 0, MinAmount: dec("1")},
	{ID: "xrp_idr", Symbol: "XRP/IDR", Base: "XRP", Quote: "IDR", BaseID: "xrp", QuoteID: "idr",
		AmountPrecision: 6, PricePrecision: 0, MinAmount: dec("1")},
	{ID: "bnb_idr", Symbol: "BNB/IDR", Base: "BNB", Quote: "IDR", BaseID: "bnb", QuoteID: "idr",
		AmountPrecision: 8, PricePrecision: 0, MinAmount: dec("0.01")},
	{ID: "sol_idr", Symbol: "SOL/IDR", Base: "SOL", Quote: "IDR", BaseID: "sol", QuoteID: "idr",
		AmountPrecision: 8, PricePrecision: 0, MinAmount: dec("0.01")},
	{ID: "ada_idr", Symbol: "ADA/IDR", Base: "ADA", Quote: "IDR", BaseID: "ada", QuoteID: "idr",
		AmountPrecision: 6, PricePrecision: 0, MinAmount: dec("1")},
	{ID: "doge_idr", Symbol: "DOGE/IDR", Base: "DOGE", Quote: "IDR", BaseID: "doge", QuoteID: "idr",
		AmountPrecision: 8, PricePrecision: 0, MinAmount: dec("100")},
	{ID: "ltc_idr", Symbol: "LTC/IDR", Base: "LTC", Quote: "IDR", BaseID: "ltc", QuoteID: "idr",
		AmountPrecision: 8, PricePrecision: 0, MinAmount: dec("0.01")},
	{ID: "trx_idr", Symbol: "TRX/IDR", Base: "TRX", Quote: "IDR", BaseID: "trx", QuoteID: "idr",
		AmountPrecision: 6, PricePrecision: 0, MinAmount: dec("10")},
}

// Markets returns a copy of the static market table.
func Markets() []core.Market {
	out := make([]core.Market, len(marketTable))
	copy(out, marketTable)
	return out
}

// NewDirectory builds the market directory from the static table.
func NewDirectory() (*core.Directory, error) {
	return core.NewDirectory(Markets())
}

// dec parses a decimal literal from the static table.
// Only used on compile-time constants, so a parse failure is a bug.
func dec(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
