package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize errors for proper handling and retry logic.
const (
	// ErrorTypeUnknown indicates an unclassified exchange error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates a network connectivity issue.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeConfiguration indicates missing or invalid local
	// configuration, detected before any request is sent.
	ErrorTypeConfiguration
	// ErrorTypeAuthentication indicates a bad key or bad signature,
	// reported by the server.
	ErrorTypeAuthentication
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeOrderNotFound indicates an operation on a nonexistent or
	// already-finalized order id.
	ErrorTypeOrderNotFound
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates the account lacks required balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules,
	// such as a price or cost below the market's minimum.
	ErrorTypeInvalidOrder
	// ErrorTypeMalformedResponse indicates a success envelope missing its
	// expected payload key.
	ErrorTypeMalformedResponse
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"CONFIGURATION",
		"AUTHENTICATION",
		"NOT_FOUND",
		"ORDER_NOT_FOUND",
		"SERVER_ERROR",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
		"MALFORMED_RESPONSE",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrNoCredentials is returned when a private call is attempted
	// without an API key and secret configured.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrMarketNotFound is returned when a symbol or native pair id is
	// absent from the market directory.
	ErrMarketNotFound = errors.New("market not found")
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrCircuitBreakerOpen is returned when circuit breaker is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// ExchangeError represents a structured error returned from an exchange.
// It provides detailed context for debugging and error handling; the
// original server payload always travels with it so no diagnostic
// information is lost in translation.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code from the response.
	StatusCode int `json:"status_code"`
	// Code is the exchange-specific error code.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// RawError contains the original error response for debugging.
	RawError any `json:"raw_error,omitempty"`
	// Exchange identifies which exchange returned this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for ExchangeError.
// It returns a formatted string with exchange name, error type, status code, and message.
func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			e.Exchange, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		e.Exchange, e.Type, e.StatusCode, e.Message)
}

// WithRaw attaches the original response payload and returns the error.
func (e *ExchangeError) WithRaw(raw any) *ExchangeError {
	e.RawError = raw
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The timestamp is automatically set to the current time.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// isErrorType reports whether err is an ExchangeError of the given type.
func isErrorType(err error, t ErrorType) bool {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsConfigurationError returns true if the error was raised locally
// before any request was sent, typically for missing credentials.
func IsConfigurationError(err error) bool {
	return isErrorType(err, ErrorTypeConfiguration)
}

// IsAuthenticationError returns true if the server rejected the request's
// key or signature. Not retryable without fixing credentials.
func IsAuthenticationError(err error) bool {
	return isErrorType(err, ErrorTypeAuthentication)
}

// IsInsufficientFundsError returns true if the account lacks the balance
// required for the operation.
func IsInsufficientFundsError(err error) bool {
	return isErrorType(err, ErrorTypeInsufficientFunds)
}

// IsInvalidOrderError returns true if the order violates the market's
// minimum price or cost rules.
func IsInvalidOrderError(err error) bool {
	return isErrorType(err, ErrorTypeInvalidOrder)
}

// IsOrderNotFoundError returns true if the operation referenced an order
// id the exchange does not know or has already finalized.
func IsOrderNotFoundError(err error) bool {
	return isErrorType(err, ErrorTypeOrderNotFound)
}

// IsMalformedResponseError returns true if a success envelope arrived
// without its expected payload key.
func IsMalformedResponseError(err error) bool {
	return isErrorType(err, ErrorTypeMalformedResponse)
}

// IsTerminalError returns true if the error indicates a terminal condition.
// Terminal errors should not be retried as they will not succeed.
func IsTerminalError(err error) bool {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeInsufficientFunds ||
			e.Type == ErrorTypeInvalidOrder ||
			e.Type == ErrorTypeOrderNotFound ||
			e.Type == ErrorTypeAuthentication
	}
	return false
}
