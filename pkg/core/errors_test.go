package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeError_Error(t *testing.T) {
	err := NewExchangeError("indodax", ErrorTypeAuthentication, 200, "Invalid credentials. Bad sign.")
	assert.Equal(t, "[indodax] AUTHENTICATION (200): Invalid credentials. Bad sign.", err.Error())

	err.Code = "E42"
	assert.Equal(t, "[indodax] AUTHENTICATION (200/E42): Invalid credentials. Bad sign.", err.Error())
}

func TestExchangeError_WithRaw(t *testing.T) {
	raw := `{"success":0,"error":"Insufficient balance."}`
	err := NewExchangeError("indodax", ErrorTypeInsufficientFunds, 200, "Insufficient balance.").WithRaw(raw)
	assert.Equal(t, raw, err.RawError)
	assert.NotZero(t, err.Timestamp)
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		errType ErrorType
		check   func(error) bool
	}{
		{ErrorTypeConfiguration, IsConfigurationError},
		{ErrorTypeAuthentication, IsAuthenticationError},
		{ErrorTypeInsufficientFunds, IsInsufficientFundsError},
		{ErrorTypeInvalidOrder, IsInvalidOrderError},
		{ErrorTypeOrderNotFound, IsOrderNotFoundError},
		{ErrorTypeMalformedResponse, IsMalformedResponseError},
	}

	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			err := NewExchangeError("indodax", tt.errType, 0, "boom")
			assert.True(t, tt.check(err))
			assert.False(t, tt.check(errors.New("plain")))

			// Helpers must see through wrapping.
			assert.True(t, tt.check(fmt.Errorf("request failed: %w", err)))
		})
	}
}

func TestIsTerminalError(t *testing.T) {
	terminal := []ErrorType{
		ErrorTypeInsufficientFunds,
		ErrorTypeInvalidOrder,
		ErrorTypeOrderNotFound,
		ErrorTypeAuthentication,
	}
	for _, et := range terminal {
		assert.True(t, IsTerminalError(NewExchangeError("indodax", et, 0, "x")), et.String())
	}

	retryable := []ErrorType{
		ErrorTypeNetwork,
		ErrorTypeTimeout,
		ErrorTypeRateLimit,
		ErrorTypeServerError,
		ErrorTypeUnknown,
	}
	for _, et := range retryable {
		assert.False(t, IsTerminalError(NewExchangeError("indodax", et, 0, "x")), et.String())
	}

	assert.False(t, IsTerminalError(errors.New("plain")))
}

func TestSentinelErrors(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ErrMarketNotFound)
	require.ErrorIs(t, wrapped, ErrMarketNotFound)
}
