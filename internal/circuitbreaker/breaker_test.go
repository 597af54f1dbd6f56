package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"closed", StateClosed, "CLOSED"},
		{"open", StateOpen, "OPEN"},
		{"half_open", StateHalfOpen, "HALF_OPEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestBreaker_New(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	})

	assert.NotNil(t, breaker)
	assert.Equal(t, StateClosed, breaker.State())
	assert.True(t, breaker.Allow())
}

func TestBreaker_TransitionToOpen(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    3,
		SuccessThreshold: 2,
		Timeout:          time.Second,
	})

	breaker.Record(false)
	breaker.Record(false)
	assert.Equal(t, StateClosed, breaker.State())

	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())
	assert.False(t, breaker.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 1,
		Timeout:          time.Second,
	})

	breaker.Record(false)
	breaker.Record(true)
	breaker.Record(false)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreaker_TransitionToHalfOpen(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	})

	breaker.Record(false)
	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())

	time.Sleep(80 * time.Millisecond)

	assert.True(t, breaker.Allow())
	assert.Equal(t, StateHalfOpen, breaker.State())
}

func TestBreaker_TransitionToClosed(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	})

	breaker.Record(false)
	breaker.Record(false)
	time.Sleep(80 * time.Millisecond)

	assert.True(t, breaker.Allow())
	breaker.Record(true)
	assert.Equal(t, StateHalfOpen, breaker.State())

	breaker.Record(true)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 2,
		Timeout:          50 * time.Millisecond,
	})

	breaker.Record(false)
	breaker.Record(false)
	time.Sleep(80 * time.Millisecond)

	assert.True(t, breaker.Allow())
	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())
	assert.False(t, breaker.Allow())
}

func TestBreaker_Reset(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    1,
		SuccessThreshold: 1,
		Timeout:          time.Hour,
	})

	breaker.Record(false)
	assert.Equal(t, StateOpen, breaker.State())

	breaker.Reset()
	assert.Equal(t, StateClosed, breaker.State())
	assert.True(t, breaker.Allow())
}

func TestBreaker_Metrics(t *testing.T) {
	breaker := New(Config{
		FailThreshold:    2,
		SuccessThreshold: 1,
		Timeout:          time.Second,
	})

	breaker.Allow()
	breaker.Record(true)
	breaker.Record(false)

	m := breaker.Metrics()
	assert.Equal(t, int64(1), m.TotalRequests)
	assert.Equal(t, int64(1), m.SuccessRequests)
	assert.Equal(t, int64(1), m.FailedRequests)
	assert.Equal(t, "CLOSED", m.CurrentState)
}
