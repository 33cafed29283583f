package domain

import (
	"fmt"
	"strings"
	"time"
)

// PairKey builds the canonical identifier "<FROM>_<TO>" for a directed
// currency quote: 1 unit of FROM equals rate units of TO.
func PairKey(from, to string) string {
	return fmt.Sprintf("%s_%s", strings.ToUpper(from), strings.ToUpper(to))
}

// SplitPairKey splits a pair key into its from/to codes.
func SplitPairKey(pair string) (from, to string, ok bool) {
	from, to, ok = strings.Cut(pair, "_")
	return from, to, ok && from != "" && to != ""
}

// QuoteMeta carries fetch diagnostics for a single quote.
type QuoteMeta struct {
	LatencyMs  int64  `json:"latency_ms,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	RawID      string `json:"raw_id,omitempty"`
}

// RateQuote is one quote produced by a rate source during a fetch. It is
// ephemeral: the store persists its own cache entry and history record
// forms, not the quote itself.
type RateQuote struct {
	Pair      string
	Rate      float64
	Source    string
	FetchedAt time.Time
	Meta      QuoteMeta
}

// HistoryRecord is one immutable measurement in the append-only rate
// history. ID doubles as the dedup key.
type HistoryRecord struct {
	ID           string    `json:"id"`
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Rate         float64   `json:"rate"`
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
	Meta         QuoteMeta `json:"meta,omitempty"`
}

// HistoryID derives the dedup key for a quote: pair key plus the fetch
// timestamp in RFC 3339.
func HistoryID(pair string, fetchedAt time.Time) string {
	return pair + "_" + fetchedAt.UTC().Format(time.RFC3339)
}

// HistoryRecordFromQuote converts a fetched quote into its history form.
func HistoryRecordFromQuote(q RateQuote) HistoryRecord {
	from, to, _ := SplitPairKey(q.Pair)
	return HistoryRecord{
		ID:           HistoryID(q.Pair, q.FetchedAt),
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         q.Rate,
		Timestamp:    q.FetchedAt.UTC(),
		Source:       q.Source,
		Meta:         q.Meta,
	}
}
