package webapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valutatrade/hub/infra/ratestore"
	infra_portfolio "github.com/valutatrade/hub/infra/repository/portfolio"
	"github.com/valutatrade/hub/pkg/app"
	"github.com/valutatrade/hub/pkg/config"
	"github.com/valutatrade/hub/pkg/currency"
	"github.com/valutatrade/hub/pkg/domain"
	"github.com/valutatrade/hub/pkg/provider"
	"github.com/valutatrade/hub/webapi"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

// stubSource serves a fixed set of quotes.
type stubSource struct {
	quotes map[string]domain.RateQuote
}

func (s *stubSource) Name() string { return "Stub" }

func (s *stubSource) FetchRates(ctx context.Context) (map[string]domain.RateQuote, error) {
	return s.quotes, nil
}

func testConfig(t *testing.T, ttl time.Duration) *config.App {
	t.Helper()
	return &config.App{
		Env:    "test",
		Server: &config.Server{Host: "localhost", Port: 3000},
		Rates: &config.Rates{
			BaseCurrency:   "USD",
			TTL:            ttl,
			SourceTimeout:  time.Second,
			UpdateInterval: time.Minute,
		},
		Ledger: &config.Ledger{InitialBalance: 10000},
	}
}

func newTestApp(t *testing.T, ttl time.Duration) (*fiber.App, *app.App) {
	t.Helper()
	dir := t.TempDir()
	store := ratestore.New(
		filepath.Join(dir, "rates.json"),
		filepath.Join(dir, "exchange_rates.json"),
		slog.Default(),
	)
	now := time.Now()
	deps := &app.Deps{
		Logger:           slog.Default(),
		CurrencyRegistry: currency.NewDefaultRegistry(),
		Store:            store,
		PortfolioRepo:    infra_portfolio.NewRepository(filepath.Join(dir, "portfolios.json"), slog.Default()),
		Sources: []provider.RateSource{&stubSource{quotes: map[string]domain.RateQuote{
			"BTC_USD": {Pair: "BTC_USD", Rate: 67000.0, Source: "Stub", FetchedAt: now},
			"EUR_USD": {Pair: "EUR_USD", Rate: 1.0786, Source: "Stub", FetchedAt: now},
		}}},
	}
	a := app.New(deps, testConfig(t, ttl))
	return webapi.SetupApp(a), a
}

func request(t *testing.T, fiberApp *fiber.App, method, target, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	resp, err := fiberApp.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	fiberApp, _ := newTestApp(t, time.Hour)
	resp := request(t, fiberApp, fiber.MethodGet, "/", "")
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestListCurrencies(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	fiberApp, _ := newTestApp(t, time.Hour)
	resp := request(t, fiberApp, fiber.MethodGet, "/api/currencies", "")
	assert.Equal(fiber.StatusOK, resp.StatusCode)

	payload := decodeResponse(t, resp)
	codes, ok := payload["data"].([]any)
	assert.True(ok)
	assert.Len(codes, 11)
}

func TestGetCurrency(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	fiberApp, _ := newTestApp(t, time.Hour)

	resp := request(t, fiberApp, fiber.MethodGet, "/api/currencies/btc", "")
	assert.Equal(fiber.StatusOK, resp.StatusCode)
	payload := decodeResponse(t, resp)
	data := payload["data"].(map[string]any)
	assert.Equal("BTC", data["code"])
	assert.Equal("crypto", data["kind"])

	resp = request(t, fiberApp, fiber.MethodGet, "/api/currencies/ZZZ", "")
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(fiber.StatusNotFound, resp.StatusCode)

	resp = request(t, fiberApp, fiber.MethodGet, "/api/currencies/x", "")
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func TestRateUpdateAndResolve(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	fiberApp, _ := newTestApp(t, time.Hour)

	resp := request(t, fiberApp, fiber.MethodPost, "/api/rates/update", "")
	require.Equal(fiber.StatusOK, resp.StatusCode)
	payload := decodeResponse(t, resp)
	data := payload["data"].(map[string]any)
	assert.EqualValues(2, data["total_pairs"])

	// Direct pair.
	resp = request(t, fiberApp, fiber.MethodGet, "/api/rates/BTC/USD", "")
	require.Equal(fiber.StatusOK, resp.StatusCode)
	detail := decodeResponse(t, resp)["data"].(map[string]any)
	assert.InDelta(67000.0, detail["rate"].(float64), 1e-6)
	assert.False(detail["derived"].(bool))

	// Bridge through the base.
	resp = request(t, fiberApp, fiber.MethodGet, "/api/rates/EUR/BTC", "")
	require.Equal(fiber.StatusOK, resp.StatusCode)
	detail = decodeResponse(t, resp)["data"].(map[string]any)
	assert.InDelta(1.0786/67000.0, detail["rate"].(float64), 1e-9)
	assert.True(detail["derived"].(bool))
}

func TestGetRateNoPath(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	fiberApp, _ := newTestApp(t, time.Hour)
	// No update ran; the cache is empty.
	resp := request(t, fiberApp, fiber.MethodGet, "/api/rates/BTC/USD", "")
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func TestPortfolioLifecycle(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	fiberApp, _ := newTestApp(t, time.Hour)
	resp := request(t, fiberApp, fiber.MethodPost, "/api/rates/update", "")
	require.Equal(fiber.StatusOK, resp.StatusCode)
	resp.Body.Close() //nolint:errcheck

	// First reference creates the portfolio with the seed balance.
	resp = request(t, fiberApp, fiber.MethodGet, "/api/portfolio/alice/", "")
	require.Equal(fiber.StatusOK, resp.StatusCode)
	summary := decodeResponse(t, resp)["data"].(map[string]any)
	wallets := summary["wallets"].([]any)
	require.Len(wallets, 1)
	usd := wallets[0].(map[string]any)
	assert.Equal("USD", usd["currency"])
	assert.InDelta(10000.0, usd["balance"].(float64), 1e-9)
	assert.InDelta(10000.0, summary["total_in_base"].(float64), 1e-9)

	// Buy 0.1 BTC for 6700 USD.
	resp = request(t, fiberApp, fiber.MethodPost, "/api/portfolio/alice/buy",
		`{"currency":"BTC","amount":0.1}`)
	require.Equal(fiber.StatusOK, resp.StatusCode)
	receipt := decodeResponse(t, resp)["data"].(map[string]any)
	assert.InDelta(3300.0, receipt["base_balance"].(float64), 1e-6)
	assert.InDelta(0.1, receipt["balance"].(float64), 1e-9)

	// Valuate back in USD: 3300 + 0.1*67000 = 10000.
	resp = request(t, fiberApp, fiber.MethodGet, "/api/portfolio/alice/value?target=USD", "")
	require.Equal(fiber.StatusOK, resp.StatusCode)
	valuation := decodeResponse(t, resp)["data"].(map[string]any)
	assert.InDelta(10000.0, valuation["total"].(float64), 1e-6)
}

func TestDepositAndWithdrawEndpoints(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	fiberApp, _ := newTestApp(t, time.Hour)

	resp := request(t, fiberApp, fiber.MethodPost, "/api/portfolio/bob/deposit",
		`{"currency":"EUR","amount":200}`)
	require.Equal(fiber.StatusOK, resp.StatusCode)
	data := decodeResponse(t, resp)["data"].(map[string]any)
	assert.InDelta(200.0, data["balance"].(float64), 1e-9)

	// Withdrawing more than held is unprocessable.
	resp = request(t, fiberApp, fiber.MethodPost, "/api/portfolio/bob/withdraw",
		`{"currency":"EUR","amount":500}`)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)

	// Unknown currency is not found.
	resp = request(t, fiberApp, fiber.MethodPost, "/api/portfolio/bob/deposit",
		`{"currency":"ZZZ","amount":10}`)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(fiber.StatusNotFound, resp.StatusCode)

	// Validation failures are bad requests.
	resp = request(t, fiberApp, fiber.MethodPost, "/api/portfolio/bob/deposit",
		`{"currency":"EUR","amount":-5}`)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func TestTradeRejectedWhenRatesExpired(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	fiberApp, _ := newTestApp(t, time.Nanosecond)
	resp := request(t, fiberApp, fiber.MethodPost, "/api/rates/update", "")
	require.Equal(fiber.StatusOK, resp.StatusCode)
	resp.Body.Close() //nolint:errcheck

	// The nanosecond TTL has long passed by the time the trade arrives.
	resp = request(t, fiberApp, fiber.MethodPost, "/api/portfolio/alice/buy",
		`{"currency":"BTC","amount":0.1}`)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(fiber.StatusConflict, resp.StatusCode)
}

func TestProblemDetailsShape(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	fiberApp, _ := newTestApp(t, time.Hour)
	resp := request(t, fiberApp, fiber.MethodGet, "/api/currencies/ZZZ", "")
	assert.Equal("application/problem+json", resp.Header.Get(fiber.HeaderContentType))

	payload := decodeResponse(t, resp)
	assert.Equal("Currency not found", payload["title"])
	assert.EqualValues(fiber.StatusNotFound, payload["status"])
	assert.Equal("/api/currencies/ZZZ", payload["instance"])
	assert.NotEmpty(payload["detail"])
}
