package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSOLtoUSDRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"solana":{"usd":142.5}}`))
	}))
	defer srv.Close()

	rate, err := NewCoinGeckoClientWithBaseURL(srv.URL).GetSOLtoUSDRate()
	require.NoError(t, err)
	assert.Equal(t, "142.50", rate)
}

func TestGetSOLtoUSDRate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewCoinGeckoClientWithBaseURL(srv.URL).GetSOLtoUSDRate()
	assert.Error(t, err)
}
