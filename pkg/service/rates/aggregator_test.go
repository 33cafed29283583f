package rates_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valutatrade/hub/pkg/domain"
	"github.com/valutatrade/hub/pkg/provider"
	"github.com/valutatrade/hub/pkg/service/rates"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

// stubSource is a scripted rate source.
type stubSource struct {
	name   string
	quotes map[string]domain.RateQuote
	err    error
	delay  time.Duration
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchRates(ctx context.Context) (map[string]domain.RateQuote, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, &provider.SourceError{Kind: provider.NetworkFailure, Source: s.name, Detail: "timed out", Err: ctx.Err()}
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.quotes, nil
}

// memCommitter records commits in memory.
type memCommitter struct {
	mu      sync.Mutex
	commits int
	pairs   map[string]domain.RateQuote
	records []domain.HistoryRecord
}

func (m *memCommitter) Commit(pairs map[string]domain.RateQuote, records []domain.HistoryRecord) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits++
	m.pairs = pairs
	m.records = records
	return len(pairs), len(records), nil
}

func stubQuote(pair string, rate float64, source string) domain.RateQuote {
	return domain.RateQuote{Pair: pair, Rate: rate, Source: source, FetchedAt: time.Now()}
}

func TestRunUpdatePartialSuccess(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	crypto := &stubSource{name: "CoinGecko", quotes: map[string]domain.RateQuote{
		"BTC_USD": stubQuote("BTC_USD", 67000.0, "CoinGecko"),
		"ETH_USD": stubQuote("ETH_USD", 3500.0, "CoinGecko"),
	}}
	fiat := &stubSource{name: "ExchangeRate-API", err: &provider.SourceError{
		Kind: provider.NetworkFailure, Source: "ExchangeRate-API", Detail: "connection refused",
	}}
	store := &memCommitter{}

	agg := rates.NewAggregator([]provider.RateSource{crypto, fiat}, store, time.Second, slog.Default())
	result, err := agg.RunUpdate(context.Background())
	require.NoError(err, "one healthy source is enough")

	assert.Equal(2, result.TotalPairs)
	assert.Equal(2, result.PerSource["CoinGecko"])
	require.Len(result.Errors, 1)
	assert.Contains(result.Errors[0], "connection refused")
	assert.False(result.Timestamp.IsZero())

	assert.Equal(1, store.commits)
	assert.Contains(store.pairs, "BTC_USD")
	assert.Len(store.records, 2)
}

func TestRunUpdateAllSourcesFailed(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	a := &stubSource{name: "A", err: &provider.SourceError{Kind: provider.NetworkFailure, Source: "A", Detail: "down"}}
	b := &stubSource{name: "B", err: &provider.SourceError{Kind: provider.AuthFailure, Source: "B", Detail: "bad key"}}
	store := &memCommitter{}

	agg := rates.NewAggregator([]provider.RateSource{a, b}, store, time.Second, slog.Default())
	_, err := agg.RunUpdate(context.Background())

	var allFailed *domain.AllSourcesFailedError
	require.ErrorAs(err, &allFailed)
	assert.Len(allFailed.Errors, 2)
	assert.Zero(store.commits, "a fully failed cycle must not touch the store")
}

func TestRunUpdateLaterSourceWins(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	first := &stubSource{name: "First", quotes: map[string]domain.RateQuote{
		"EUR_USD": stubQuote("EUR_USD", 1.05, "First"),
	}}
	second := &stubSource{name: "Second", quotes: map[string]domain.RateQuote{
		"EUR_USD": stubQuote("EUR_USD", 1.08, "Second"),
	}}
	store := &memCommitter{}

	agg := rates.NewAggregator([]provider.RateSource{first, second}, store, time.Second, slog.Default())
	result, err := agg.RunUpdate(context.Background())
	require.NoError(err)

	assert.Equal(1, result.TotalPairs)
	assert.InDelta(1.08, store.pairs["EUR_USD"].Rate, 1e-9)
	assert.Equal("Second", store.pairs["EUR_USD"].Source)
}

func TestRunUpdateDropsInvalidRates(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	src := &stubSource{name: "Sketchy", quotes: map[string]domain.RateQuote{
		"BTC_USD": stubQuote("BTC_USD", 67000.0, "Sketchy"),
		"ETH_USD": stubQuote("ETH_USD", 0, "Sketchy"),
		"SOL_USD": stubQuote("SOL_USD", -3, "Sketchy"),
		"XRP_USD": stubQuote("XRP_USD", math.NaN(), "Sketchy"),
	}}
	store := &memCommitter{}

	agg := rates.NewAggregator([]provider.RateSource{src}, store, time.Second, slog.Default())
	result, err := agg.RunUpdate(context.Background())
	require.NoError(err)

	assert.Equal(1, result.TotalPairs)
	assert.Equal(1, result.PerSource["Sketchy"])
	assert.Len(store.pairs, 1)
	assert.Contains(store.pairs, "BTC_USD")
}

func TestRunUpdateSourceTimeout(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	require := require.New(t)

	slow := &stubSource{name: "Slow", delay: 500 * time.Millisecond, quotes: map[string]domain.RateQuote{
		"BTC_USD": stubQuote("BTC_USD", 67000.0, "Slow"),
	}}
	fast := &stubSource{name: "Fast", quotes: map[string]domain.RateQuote{
		"EUR_USD": stubQuote("EUR_USD", 1.08, "Fast"),
	}}
	store := &memCommitter{}

	agg := rates.NewAggregator([]provider.RateSource{slow, fast}, store, 50*time.Millisecond, slog.Default())
	result, err := agg.RunUpdate(context.Background())
	require.NoError(err)

	assert.Equal(1, result.TotalPairs)
	assert.Equal(1, result.PerSource["Fast"])
	require.Len(result.Errors, 1)
	assert.Contains(result.Errors[0], "Slow")
}
