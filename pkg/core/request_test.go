package core

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest(http.MethodGet, "/api/btc_idr/ticker")

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/btc_idr/ticker", req.Path)
	assert.Equal(t, 1, req.Weight)
	assert.False(t, req.RequireAuth)
	assert.Empty(t, req.Form)
}

func TestRequest_Setters(t *testing.T) {
	req := NewRequest(http.MethodPost, "/tapi").
		SetForm("method", "getInfo").
		SetHeader("Key", "abc").
		SetQuery("limit", 10).
		SetWeight(2).
		SetRequireAuth(true)

	assert.Equal(t, "getInfo", req.Form["method"])
	assert.Equal(t, "abc", req.Headers["Key"])
	assert.Equal(t, 10, req.Query["limit"])
	assert.Equal(t, 2, req.Weight)
	assert.True(t, req.RequireAuth)
}

func TestRequest_SetQueryParams(t *testing.T) {
	req := NewRequest(http.MethodGet, "/api").
		SetQuery("a", 1).
		SetQueryParams(Params{"b": 2, "c": "x"})

	assert.Equal(t, 1, req.Query["a"])
	assert.Equal(t, 2, req.Query["b"])
	assert.Equal(t, "x", req.Query["c"])
}

func TestRequest_SetFormOnNilMap(t *testing.T) {
	req := &Request{}
	req.SetForm("k", "v")
	assert.Equal(t, "v", req.Form["k"])
}
