package fx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pactwine/pact-backend/pkg/cache"
	"github.com/pactwine/pact-backend/pkg/enums"
)

func TestHTTPProviderRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "EUR", r.URL.Query().Get("base"))
		assert.Equal(t, "SEK", r.URL.Query().Get("symbols"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{"SEK":11.25}}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(time.Second, WithBaseURL(server.URL))
	rate, err := provider.Rate(context.Background(), enums.CurrencyEUR, enums.CurrencySEK)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromFloat(11.25)), "got %s", rate)
}

func TestHTTPProviderSameCurrencyShortCircuits(t *testing.T) {
	provider := NewHTTPProvider(time.Second, WithBaseURL("http://127.0.0.1:1"))
	rate, err := provider.Rate(context.Background(), enums.CurrencySEK, enums.CurrencySEK)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestHTTPProviderUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewHTTPProvider(time.Second, WithBaseURL(server.URL))
	_, err := provider.Rate(context.Background(), enums.CurrencyEUR, enums.CurrencySEK)
	require.Error(t, err)
}

func TestCachedProviderHitsUpstreamOnce(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"rates":{"SEK":11.25}}`))
	}))
	defer server.Close()

	inner := NewHTTPProvider(time.Second, WithBaseURL(server.URL))
	cached, err := NewCachedProvider(inner, cache.NewTTL[decimal.Decimal](time.Hour))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rate, err := cached.Rate(context.Background(), enums.CurrencyEUR, enums.CurrencySEK)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.NewFromFloat(11.25)))
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestRateOrFallback(t *testing.T) {
	provider := NewHTTPProvider(100*time.Millisecond, WithBaseURL("http://127.0.0.1:1"))
	rate, err := RateOrFallback(context.Background(), provider, enums.CurrencyEUR, enums.CurrencySEK)
	require.Error(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(1)), "fallback rate must be 1, got %s", rate)
}
