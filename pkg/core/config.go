package core

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// RateLimitConfig defines rate limiting parameters for an exchange protocol.
type RateLimitConfig struct {
	// RequestsPerSecond is the maximum general requests per second.
	RequestsPerSecond int `json:"requests_per_second"`
	// OrdersPerSecond is the maximum order placement requests per second.
	OrdersPerSecond int `json:"orders_per_second"`
	// Burst allows temporary exceeding of rate limits.
	Burst int `json:"burst"`
}

// Credentials holds API authentication credentials for an exchange.
// Private requests require both fields; the signer rejects a private
// call before any I/O when either is empty.
type Credentials struct {
	// APIKey is the public API key identifier, sent in the Key header.
	APIKey string `json:"api_key"`
	// SecretKey is the private key used as the HMAC-SHA512 signing key.
	SecretKey string `json:"secret_key"`
}

// Config contains all configuration options for an exchange session.
// It includes authentication, networking, rate limiting, and circuit
// breaker settings.
type Config struct {
	Exchange    string       `json:"exchange" validate:"required"`
	Credentials *Credentials `json:"credentials,omitempty"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout      time.Duration `json:"timeout" validate:"min=1ms"`
	MaxRetries   int           `json:"max_retries" validate:"min=0"`
	RetryWaitMin time.Duration `json:"retry_wait_min" validate:"min=0"`
	RetryWaitMax time.Duration `json:"retry_wait_max" validate:"min=0"`

	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=1ms"`

	CircuitBreakerEnabled          bool          `json:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `json:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `json:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `json:"circuit_breaker_timeout"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config initialized with sensible defaults for
// the specified exchange. Default values: 10s timeout, 3 retries,
// 100ms-1s retry wait, 180 req/min rate limit, circuit breaker with
// 5 failures/2 successes/30s timeout.
func DefaultConfig(exchange string) *Config {
	return &Config{
		Exchange:     exchange,
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 1 * time.Second,

		RateLimitRequests: 180,
		RateLimitPeriod:   time.Minute,

		CircuitBreakerEnabled:          true,
		CircuitBreakerFailThreshold:    5,
		CircuitBreakerSuccessThreshold: 2,
		CircuitBreakerTimeout:          30 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.CircuitBreakerEnabled {
		if c.CircuitBreakerFailThreshold <= 0 {
			return errors.New("CircuitBreakerFailThreshold must be positive when enabled")
		}
		if c.CircuitBreakerSuccessThreshold <= 0 {
			return errors.New("CircuitBreakerSuccessThreshold must be positive when enabled")
		}
		if c.CircuitBreakerTimeout <= 0 {
			return errors.New("CircuitBreakerTimeout must be positive when enabled")
		}
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}
