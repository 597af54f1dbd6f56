package indodax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indodax/pkg/core"
)

func TestClassifyResponse_KnownMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want core.ErrorType
	}{
		{
			"insufficient balance",
			`{"success":0,"error":"Insufficient balance."}`,
			core.ErrorTypeInsufficientFunds,
		},
		{
			"order not found",
			`{"success":0,"error":"invalid order."}`,
			core.ErrorTypeOrderNotFound,
		},
		{
			"minimum price",
			`{"success":0,"error":"Minimum price is 10000"}`,
			core.ErrorTypeInvalidOrder,
		},
		{
			"minimum order",
			`{"success":0,"error":"Minimum order size is 10000 IDR"}`,
			core.ErrorTypeInvalidOrder,
		},
		{
			"expired key",
			`{"success":0,"error":"Invalid credentials. API not found or session has expired."}`,
			core.ErrorTypeAuthentication,
		},
		{
			"bad signature",
			`{"success":0,"error":"Invalid credentials. Bad sign."}`,
			core.ErrorTypeAuthentication,
		},
		{
			"unrecognized message",
			`{"success":0,"error":"something entirely new"}`,
			core.ErrorTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyResponse(core.OpPlaceOrder, 200, []byte(tt.body))
			require.Error(t, err)

			var exErr *core.ExchangeError
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, tt.want, exErr.Type)
			assert.Equal(t, "indodax", exErr.Exchange)
			assert.NotEmpty(t, exErr.RawError)
		})
	}
}

func TestClassifyResponse_SubstringMatchIsPositional(t *testing.T) {
	// "Minimum price" appears mid-sentence too; the table still matches
	// because the rule is a substring check.
	err := classifyResponse(core.OpPlaceOrder, 200,
		[]byte(`{"success":0,"error":"Failed. Minimum price is 10000 IDR."}`))
	require.Error(t, err)

	var exErr *core.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, core.ErrorTypeInvalidOrder, exErr.Type)
}

func TestClassifyResponse_PassThrough(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"whitespace", "   \n"},
		{"bare array", `[{"date":"1600000000","price":"100","amount":"1","tid":"1","type":"buy"}]`},
		{"object without success", `{"ticker":{"last":"500000000"}}`},
		{"success with return", `{"success":1,"return":{"orders":[]}}`},
		{"string success with return", `{"success":"1","return":{"order_id":"1234"}}`},
		{"not json", "<html>gateway timeout</html>"},
		{"malformed object", `{"success":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, classifyResponse(core.OpGetTicker, 200, []byte(tt.body)))
		})
	}
}

func TestClassifyResponse_SuccessWithoutReturn(t *testing.T) {
	body := []byte(`{"success":1}`)

	err := classifyResponse(core.OpPlaceOrder, 200, body)
	require.Error(t, err)

	var exErr *core.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, core.ErrorTypeMalformedResponse, exErr.Type)
	assert.True(t, core.IsMalformedResponseError(err))
}

func TestClassifyResponse_WithdrawIsFlat(t *testing.T) {
	// withdrawCoin answers with a flat object, so a success envelope
	// without a return payload is valid there.
	body := []byte(`{"success":1,"status":"approved","withdraw_currency":"btc"}`)

	assert.NoError(t, classifyResponse(core.OpWithdraw, 200, body))
	assert.Error(t, classifyResponse(core.OpPlaceOrder, 200, body))
}

func TestClassifyResponse_ErrorBeatsHTTPStatus(t *testing.T) {
	// Classification is independent of the HTTP status; the envelope wins.
	err := classifyResponse(core.OpGetBalance, 502,
		[]byte(`{"success":0,"error":"Invalid credentials. Bad sign."}`))
	require.Error(t, err)
	assert.True(t, core.IsAuthenticationError(err))
}
