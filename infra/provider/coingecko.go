// Package provider contains the concrete rate source adapters. Each
// adapter owns its HTTP client and translates the provider's native
// identifiers and quoting convention into canonical "<CODE>_<BASE>" quotes.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/valutatrade/hub/pkg/config"
	"github.com/valutatrade/hub/pkg/domain"
	"github.com/valutatrade/hub/pkg/provider"
)

const coinGeckoName = "CoinGecko"

// CoinGeckoSource fetches cryptocurrency quotes from the CoinGecko
// /simple/price endpoint. The free tier needs no API key.
type CoinGeckoSource struct {
	baseURL      string
	baseCurrency string
	idMap        map[string]string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewCoinGeckoSource creates the CoinGecko adapter from config.
func NewCoinGeckoSource(cfg *config.CoinGecko, baseCurrency string, timeout time.Duration, logger *slog.Logger) *CoinGeckoSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoinGeckoSource{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		baseCurrency: strings.ToUpper(baseCurrency),
		idMap:        cfg.IDMap,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// Name implements provider.RateSource.
func (s *CoinGeckoSource) Name() string { return coinGeckoName }

// FetchRates implements provider.RateSource.
func (s *CoinGeckoSource) FetchRates(ctx context.Context) (map[string]domain.RateQuote, error) {
	ids := make([]string, 0, len(s.idMap))
	for _, id := range s.idMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", strings.ToLower(s.baseCurrency))
	reqURL := fmt.Sprintf("%s/simple/price?%s", s.baseURL, q.Encode())

	s.logger.Info("fetching crypto rates", "source", coinGeckoName, "url", s.baseURL)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &provider.SourceError{Kind: provider.NetworkFailure, Source: coinGeckoName, Detail: "building request", Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &provider.SourceError{Kind: provider.NetworkFailure, Source: coinGeckoName, Detail: "request failed", Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	latency := time.Since(start)
	if err := checkStatus(coinGeckoName, resp.StatusCode); err != nil {
		return nil, err
	}

	// {"bitcoin": {"usd": 67000.0}, ...}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &provider.SourceError{Kind: provider.MalformedResponse, Source: coinGeckoName, Detail: "decoding response", Err: err}
	}

	vs := strings.ToLower(s.baseCurrency)
	fetchedAt := time.Now()
	quotes := make(map[string]domain.RateQuote, len(s.idMap))
	for code, coinID := range s.idMap {
		prices, ok := payload[coinID]
		if !ok {
			continue
		}
		price, ok := prices[vs]
		if !ok || price <= 0 {
			continue
		}
		pair := domain.PairKey(code, s.baseCurrency)
		quotes[pair] = domain.RateQuote{
			Pair:      pair,
			Rate:      price,
			Source:    coinGeckoName,
			FetchedAt: fetchedAt,
			Meta: domain.QuoteMeta{
				LatencyMs:  latency.Milliseconds(),
				StatusCode: resp.StatusCode,
				RawID:      coinID,
			},
		}
	}

	s.logger.Info("crypto rates fetched", "source", coinGeckoName, "count", len(quotes), "latency_ms", latency.Milliseconds())
	return quotes, nil
}

// checkStatus maps an HTTP status code to the source error taxonomy.
func checkStatus(source string, status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return &provider.SourceError{Kind: provider.RateLimited, Source: source, Detail: fmt.Sprintf("rate limit exceeded (%d)", status)}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &provider.SourceError{Kind: provider.AuthFailure, Source: source, Detail: fmt.Sprintf("authentication error (%d)", status)}
	default:
		return &provider.SourceError{Kind: provider.NetworkFailure, Source: source, Detail: fmt.Sprintf("unexpected status %d", status)}
	}
}

var _ provider.RateSource = (*CoinGeckoSource)(nil)
