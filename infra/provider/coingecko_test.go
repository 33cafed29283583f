package provider_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infra_provider "github.com/valutatrade/hub/infra/provider"
	"github.com/valutatrade/hub/pkg/config"
	"github.com/valutatrade/hub/pkg/provider"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

func coinGeckoConfig(baseURL string) *config.CoinGecko {
	return &config.CoinGecko{
		BaseURL: baseURL,
		IDMap:   map[string]string{"BTC": "bitcoin", "ETH": "ethereum"},
	}
}

func TestCoinGeckoFetchRates(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/simple/price", r.URL.Path)
		assert.Equal("bitcoin,ethereum", r.URL.Query().Get("ids"))
		assert.Equal("usd", r.URL.Query().Get("vs_currencies"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":67000.5},"ethereum":{"usd":3500.25}}`))
	}))
	defer server.Close()

	src := infra_provider.NewCoinGeckoSource(coinGeckoConfig(server.URL), "USD", 5*time.Second, slog.Default())
	assert.Equal("CoinGecko", src.Name())

	quotes, err := src.FetchRates(context.Background())
	require.NoError(err)
	require.Len(quotes, 2)

	btc := quotes["BTC_USD"]
	assert.Equal("BTC_USD", btc.Pair)
	assert.InDelta(67000.5, btc.Rate, 1e-9)
	assert.Equal("CoinGecko", btc.Source)
	assert.Equal("bitcoin", btc.Meta.RawID)
	assert.Equal(http.StatusOK, btc.Meta.StatusCode)
	assert.False(btc.FetchedAt.IsZero())
}

func TestCoinGeckoSkipsMissingAndNonPositive(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":0},"ripple":{"usd":2.1}}`))
	}))
	defer server.Close()

	src := infra_provider.NewCoinGeckoSource(coinGeckoConfig(server.URL), "USD", 5*time.Second, slog.Default())
	quotes, err := src.FetchRates(context.Background())
	require.NoError(err)
	assert.Empty(quotes, "zero rates and unknown coins are dropped")
}

func TestCoinGeckoRateLimited(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := infra_provider.NewCoinGeckoSource(coinGeckoConfig(server.URL), "USD", 5*time.Second, slog.Default())
	_, err := src.FetchRates(context.Background())

	var srcErr *provider.SourceError
	require.ErrorAs(err, &srcErr)
	assert.Equal(provider.RateLimited, srcErr.Kind)
	assert.Equal("CoinGecko", srcErr.Source)
}

func TestCoinGeckoMalformedResponse(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<!doctype html><html>`))
	}))
	defer server.Close()

	src := infra_provider.NewCoinGeckoSource(coinGeckoConfig(server.URL), "USD", 5*time.Second, slog.Default())
	_, err := src.FetchRates(context.Background())

	var srcErr *provider.SourceError
	require.ErrorAs(err, &srcErr)
	assert.Equal(provider.MalformedResponse, srcErr.Kind)
}

func TestCoinGeckoContextTimeout(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	src := infra_provider.NewCoinGeckoSource(coinGeckoConfig(server.URL), "USD", 5*time.Second, slog.Default())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := src.FetchRates(ctx)

	var srcErr *provider.SourceError
	require.ErrorAs(err, &srcErr)
	assert.Equal(provider.NetworkFailure, srcErr.Kind)
}
