package indodax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirectory(t *testing.T) {
	directory, err := NewDirectory()
	require.NoError(t, err)
	assert.Equal(t, len(marketTable), directory.Len())
}

func TestDirectory_Lookup(t *testing.T) {
	directory, err := NewDirectory()
	require.NoError(t, err)

	market, err := directory.Lookup("BTC/IDR")
	require.NoError(t, err)
	assert.Equal(t, "btc_idr", market.ID)
	assert.Equal(t, "btc", market.BaseID)
	assert.Equal(t, "idr", market.QuoteID)

	byID, err := directory.LookupByID("btc_idr")
	require.NoError(t, err)
	assert.Same(t, market, byID)
}

func TestMarketTable_Consistent(t *testing.T) {
	for _, m := range Markets() {
		t.Run(m.ID, func(t *testing.T) {
			assert.Equal(t, m.BaseID+"_"+m.QuoteID, m.ID)
			assert.Equal(t, m.Base+"/"+m.Quote, m.Symbol)
			assert.Equal(t, strings.ToLower(m.Base), m.BaseID)
			assert.Equal(t, strings.ToLower(m.Quote), m.QuoteID)
			assert.NotNil(t, m.MinAmount)
		})
	}
}

func TestMarkets_ReturnsCopy(t *testing.T) {
	a := Markets()
	a[0].ID = "mutated"
	b := Markets()
	assert.Equal(t, "btc_idr", b[0].ID)
}
