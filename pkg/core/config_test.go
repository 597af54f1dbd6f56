package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("indodax")

	assert.Equal(t, "indodax", config.Exchange)
	assert.Equal(t, 10*time.Second, config.Timeout)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 180, config.RateLimitRequests)
	assert.Equal(t, time.Minute, config.RateLimitPeriod)
	assert.True(t, config.CircuitBreakerEnabled)
	assert.Nil(t, config.Credentials)

	require.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default is valid", func(*Config) {}, false},
		{"missing exchange", func(c *Config) { c.Exchange = "" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimitRequests = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"breaker enabled without thresholds", func(c *Config) {
			c.CircuitBreakerFailThreshold = 0
		}, true},
		{"breaker disabled ignores thresholds", func(c *Config) {
			c.CircuitBreakerEnabled = false
			c.CircuitBreakerFailThreshold = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig("indodax")
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Chaining(t *testing.T) {
	config := DefaultConfig("indodax").
		WithCredentials(&Credentials{APIKey: "k", SecretKey: "s"}).
		WithTimeout(5 * time.Second).
		WithRateLimit(60, time.Minute)

	require.NotNil(t, config.Credentials)
	assert.Equal(t, "k", config.Credentials.APIKey)
	assert.Equal(t, 5*time.Second, config.Timeout)
	assert.Equal(t, 60, config.RateLimitRequests)

	require.NoError(t, config.Validate())
}
