package core

import (
	"context"

	"resty.dev/v3"
)

// Protocol defines the interface for exchange-specific protocol
// implementations: request building, authentication, response
// normalization and error classification.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "indodax").
	Name() string

	// Version returns the API version being used.
	Version() string

	// BaseURL returns the REST API base URL.
	BaseURL() string

	// BuildRequest constructs an HTTP request for the specified operation.
	// The params map contains operation-specific parameters.
	// Returns a Request object ready for signing/execution or an error.
	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// ParseResponse classifies the HTTP response and, on success,
	// normalizes it to the canonical type for the operation. The market
	// argument supplies the descriptor needed to resolve currency-keyed
	// fields; it may be nil for operations that span all markets.
	ParseResponse(op Operation, market *Market, resp *resty.Response) (any, error)

	// SignRequest stamps a fresh nonce into the request's form body and
	// adds the authentication headers computed over the encoded body.
	SignRequest(req *resty.Request, creds Credentials) error

	// SupportedOperations returns the list of operations this protocol supports.
	SupportedOperations() []Operation

	// RateLimits returns the rate limiting configuration for this exchange.
	RateLimits() RateLimitConfig
}
