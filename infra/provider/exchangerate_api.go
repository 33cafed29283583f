package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/valutatrade/hub/pkg/config"
	"github.com/valutatrade/hub/pkg/domain"
	"github.com/valutatrade/hub/pkg/provider"
)

const exchangeRateAPIName = "ExchangeRate-API"

// exchangeRateAPIResponse is the v6 /latest payload.
// See: https://www.exchangerate-api.com/docs/standard-requests
type exchangeRateAPIResponse struct {
	Result          string             `json:"result"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	ErrorType       string             `json:"error-type,omitempty"`
}

// ExchangeRateAPISource fetches fiat quotes from exchangerate-api.com.
// The provider quotes BASE→X; the adapter inverts each rate into the
// canonical "1 unit of X = rate units of BASE" form.
type ExchangeRateAPISource struct {
	apiKey       string
	baseURL      string
	baseCurrency string
	fiatCodes    []string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewExchangeRateAPISource creates the ExchangeRate-API adapter. A missing
// API key is a startup-time auth failure, not a panic at fetch time.
func NewExchangeRateAPISource(cfg *config.ExchangeRateAPI, baseCurrency string, timeout time.Duration, logger *slog.Logger) (*ExchangeRateAPISource, error) {
	if cfg.APIKey == "" {
		return nil, &provider.SourceError{
			Kind:   provider.AuthFailure,
			Source: exchangeRateAPIName,
			Detail: "API key is not configured; register at https://www.exchangerate-api.com/ for a free key",
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExchangeRateAPISource{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		baseCurrency: strings.ToUpper(baseCurrency),
		fiatCodes:    cfg.FiatCodes,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}, nil
}

// Name implements provider.RateSource.
func (s *ExchangeRateAPISource) Name() string { return exchangeRateAPIName }

// FetchRates implements provider.RateSource.
func (s *ExchangeRateAPISource) FetchRates(ctx context.Context) (map[string]domain.RateQuote, error) {
	reqURL := fmt.Sprintf("%s/%s/latest/%s", s.baseURL, s.apiKey, s.baseCurrency)

	s.logger.Info("fetching fiat rates", "source", exchangeRateAPIName, "base", s.baseCurrency)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &provider.SourceError{Kind: provider.NetworkFailure, Source: exchangeRateAPIName, Detail: "building request", Err: err}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &provider.SourceError{Kind: provider.NetworkFailure, Source: exchangeRateAPIName, Detail: "request failed", Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	latency := time.Since(start)
	if err := checkStatus(exchangeRateAPIName, resp.StatusCode); err != nil {
		return nil, err
	}

	var payload exchangeRateAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &provider.SourceError{Kind: provider.MalformedResponse, Source: exchangeRateAPIName, Detail: "decoding response", Err: err}
	}
	if payload.Result != "success" {
		kind := provider.MalformedResponse
		if payload.ErrorType == "invalid-key" || payload.ErrorType == "inactive-account" {
			kind = provider.AuthFailure
		}
		return nil, &provider.SourceError{
			Kind:   kind,
			Source: exchangeRateAPIName,
			Detail: fmt.Sprintf("API returned result=%s (%s)", payload.Result, payload.ErrorType),
		}
	}

	fetchedAt := time.Now()
	quotes := make(map[string]domain.RateQuote, len(s.fiatCodes))
	for _, code := range s.fiatCodes {
		apiRate, ok := payload.ConversionRates[code]
		if !ok || apiRate <= 0 {
			continue
		}
		// The provider quotes 1 BASE = apiRate X; invert to X→BASE.
		pair := domain.PairKey(code, s.baseCurrency)
		quotes[pair] = domain.RateQuote{
			Pair:      pair,
			Rate:      1.0 / apiRate,
			Source:    exchangeRateAPIName,
			FetchedAt: fetchedAt,
			Meta: domain.QuoteMeta{
				LatencyMs:  latency.Milliseconds(),
				StatusCode: resp.StatusCode,
				RawID:      code,
			},
		}
	}

	s.logger.Info("fiat rates fetched", "source", exchangeRateAPIName, "count", len(quotes), "latency_ms", latency.Milliseconds())
	return quotes, nil
}

var _ provider.RateSource = (*ExchangeRateAPISource)(nil)
