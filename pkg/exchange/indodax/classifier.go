package indodax

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"indodax/pkg/core"
)

// The trade API reports failures as free text in an {success:0, error}
// envelope, with no machine-readable code. Classification is therefore
// tied to the exchange's exact wording; keeping the mapping in one table
// lets it be updated without touching any parsing logic. Entries are
// checked in order and the first match wins.
var errorPatterns = []struct {
	text      string
	substring bool
	kind      core.ErrorType
}{
	{"Insufficient balance.", false, core.ErrorTypeInsufficientFunds},
	{"invalid order.", false, core.ErrorTypeOrderNotFound},
	{"Minimum price ", true, core.ErrorTypeInvalidOrder},
	{"Minimum order ", true, core.ErrorTypeInvalidOrder},
	{"Invalid credentials. API not found or session has expired.", false, core.ErrorTypeAuthentication},
	{"Invalid credentials. Bad sign.", false, core.ErrorTypeAuthentication},
}

// successEnvelope is the private-API response wrapper. Success may be a
// JSON number or string depending on the endpoint, so it is decoded
// loosely; a nil Success means the field was absent entirely.
type successEnvelope struct {
	Success any    `json:"success"`
	Error   string `json:"error"`
	Return  any    `json:"return"`
}

// classifyResponse inspects a raw response body and either lets it pass
// (nil) or returns the canonical error for it. It is the single point of
// translation from exchange error text to error kind and always runs
// before any parser. op decides whether a successful envelope must carry
// a "return" payload: withdrawCoin responds with a flat object instead.
func classifyResponse(op core.Operation, statusCode int, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	// Bare arrays are legitimate public responses (e.g. the trades
	// endpoint); only object envelopes can carry a success flag.
	if trimmed[0] != '{' {
		return nil
	}

	var env successEnvelope
	if err := sonic.Unmarshal(trimmed, &env); err != nil {
		return nil
	}
	if env.Success == nil {
		return nil
	}

	if successValue(env.Success) == 1 {
		if env.Return == nil && expectsReturn(op) {
			return core.NewExchangeError(exchangeName, core.ErrorTypeMalformedResponse, statusCode,
				"success envelope without return payload").WithRaw(string(body))
		}
		return nil
	}

	kind := core.ErrorTypeUnknown
	for _, p := range errorPatterns {
		if p.substring && strings.Contains(env.Error, p.text) {
			kind = p.kind
			break
		}
		if !p.substring && env.Error == p.text {
			kind = p.kind
			break
		}
	}
	return core.NewExchangeError(exchangeName, kind, statusCode, env.Error).WithRaw(string(body))
}

// expectsReturn reports whether a success:1 response for op must nest
// its payload under the "return" key.
func expectsReturn(op core.Operation) bool {
	return op != core.OpWithdraw
}

// successValue coerces the loosely typed success flag to an integer.
func successValue(v any) int {
	switch s := v.(type) {
	case float64:
		return int(s)
	case string:
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return i
	case bool:
		if s {
			return 1
		}
		return 0
	default:
		return 0
	}
}
