// Package rates implements the aggregation engine: fan-out fetching from
// the configured sources, merging into the durable store, cross-rate
// resolution, and periodic refresh.
package rates

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/valutatrade/hub/pkg/domain"
	"github.com/valutatrade/hub/pkg/provider"
)

// UpdateResult summarizes one completed update cycle.
type UpdateResult struct {
	// TotalPairs is the number of distinct pairs written to the cache.
	TotalPairs int `json:"total_pairs"`
	// PerSource counts accepted quotes per source name.
	PerSource map[string]int `json:"per_source"`
	// Errors lists the failures of sources that did not contribute.
	Errors []string `json:"errors,omitempty"`
	// Timestamp is when the cycle committed.
	Timestamp time.Time `json:"timestamp"`
}

// Committer is the slice of the rate store the aggregator writes through.
type Committer interface {
	Commit(pairs map[string]domain.RateQuote, records []domain.HistoryRecord) (updated, appended int, err error)
}

// Aggregator runs update cycles against a fixed, ordered set of sources.
// Source order is significant: when two sources quote the same pair, the
// later one in the list wins.
type Aggregator struct {
	sources       []provider.RateSource
	store         Committer
	sourceTimeout time.Duration
	logger        *slog.Logger
}

// NewAggregator wires the aggregator. Sources are queried concurrently,
// each under its own timeout derived from sourceTimeout.
func NewAggregator(sources []provider.RateSource, store Committer, sourceTimeout time.Duration, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		sources:       sources,
		store:         store,
		sourceTimeout: sourceTimeout,
		logger:        logger,
	}
}

type fetchOutcome struct {
	source string
	quotes map[string]domain.RateQuote
	err    error
}

// RunUpdate executes one full update cycle: fetch from every source
// concurrently, merge the successful results in source order, and commit
// cache and history together. When every source fails, nothing is written
// and a *domain.AllSourcesFailedError is returned. Partial failures are
// reported in the result, not as an error.
func (a *Aggregator) RunUpdate(ctx context.Context) (*UpdateResult, error) {
	a.logger.Info("starting rate update cycle", "sources", len(a.sources))
	start := time.Now()

	outcomes := make([]fetchOutcome, len(a.sources))
	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src provider.RateSource) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, a.sourceTimeout)
			defer cancel()
			quotes, err := src.FetchRates(fetchCtx)
			outcomes[i] = fetchOutcome{source: src.Name(), quotes: quotes, err: err}
		}(i, src)
	}
	wg.Wait()

	result := &UpdateResult{PerSource: make(map[string]int, len(a.sources))}
	merged := make(map[string]domain.RateQuote)
	records := make([]domain.HistoryRecord, 0, 16)

	for _, out := range outcomes {
		if out.err != nil {
			a.logger.Warn("rate source failed", "source", out.source, "error", out.err)
			result.Errors = append(result.Errors, out.err.Error())
			continue
		}
		accepted := 0
		for pair, q := range out.quotes {
			if !validRate(q.Rate) {
				a.logger.Warn("dropping invalid quote", "source", out.source, "pair", pair, "rate", q.Rate)
				continue
			}
			merged[pair] = q
			records = append(records, domain.HistoryRecordFromQuote(q))
			accepted++
		}
		result.PerSource[out.source] = accepted
		a.logger.Info("rate source completed", "source", out.source, "accepted", accepted)
	}

	if len(result.PerSource) == 0 {
		a.logger.Error("all rate sources failed, cache untouched", "errors", len(result.Errors))
		return nil, &domain.AllSourcesFailedError{Errors: result.Errors}
	}

	updated, appended, err := a.store.Commit(merged, records)
	if err != nil {
		return nil, err
	}

	result.TotalPairs = updated
	result.Timestamp = time.Now()
	a.logger.Info("rate update cycle committed",
		"pairs", updated,
		"history_appended", appended,
		"failed_sources", len(result.Errors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsNaN(rate) && !math.IsInf(rate, 0)
}
