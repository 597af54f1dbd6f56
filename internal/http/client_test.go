package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indodax/pkg/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{BaseURL: "not a url", Timeout: time.Second})
	assert.Error(t, err)

	_, err = NewClient(&Config{BaseURL: "https://example.com"})
	assert.Error(t, err)
}

func TestClient_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		assert.Equal(t, "1", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	resp, err := client.Get(context.Background(), "/path",
		WithHeader("X-Test", "v"),
		WithQueryParam("q", "1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, `{"ok":true}`, string(resp.Bytes()))
}

func TestClient_Closed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err := client.Get(context.Background(), "/")
	assert.ErrorIs(t, err, core.ErrClientClosed)

	_, err = client.Post(context.Background(), "/", nil)
	assert.ErrorIs(t, err, core.ErrClientClosed)
}
