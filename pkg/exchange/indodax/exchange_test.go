package indodax

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indodax/pkg/core"
	"indodax/pkg/exchange"
)

var _ exchange.Exchange = (*IndodaxExchange)(nil)

func TestNew(t *testing.T) {
	ex, err := New(core.DefaultConfig("indodax"))
	require.NoError(t, err)
	defer ex.Close()

	assert.Equal(t, "indodax", ex.Name())
	assert.Equal(t, "1.8", ex.Version())
	assert.Equal(t, len(marketTable), ex.Directory().Len())
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&core.Config{})
	require.Error(t, err)
}

func TestNew_WithLogger(t *testing.T) {
	ex, err := New(core.DefaultConfig("indodax"), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	defer ex.Close()

	assert.NotNil(t, ex)
}

func TestExchange_CloseIsIdempotent(t *testing.T) {
	ex, err := New(core.DefaultConfig("indodax"))
	require.NoError(t, err)

	require.NoError(t, ex.Close())
	require.NoError(t, ex.Close())
}

func TestExchange_PrivateCallWithoutCredentials(t *testing.T) {
	ex, err := New(core.DefaultConfig("indodax"))
	require.NoError(t, err)
	defer ex.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = ex.GetBalance(ctx)
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
}

func TestExchange_UnknownSymbol(t *testing.T) {
	ex, err := New(core.DefaultConfig("indodax"))
	require.NoError(t, err)
	defer ex.Close()

	_, err = ex.GetTicker(context.Background(), "FOO/BAR")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMarketNotFound)
}

func TestExchange_GetTradesUnknownSymbolYieldsError(t *testing.T) {
	ex, err := New(core.DefaultConfig("indodax"))
	require.NoError(t, err)
	defer ex.Close()

	var got error
	for _, err := range ex.GetTrades(context.Background(), "FOO/BAR") {
		got = err
		break
	}
	require.Error(t, got)
	assert.ErrorIs(t, got, core.ErrMarketNotFound)
}
