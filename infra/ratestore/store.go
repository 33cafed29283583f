// Package ratestore persists the rate cache and the append-only rate
// history as JSON documents with atomic replacement.
package ratestore

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valutatrade/hub/pkg/domain"
)

// CacheEntry is the persisted latest-known rate for one pair key.
type CacheEntry struct {
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"`
}

// Snapshot is an immutable view of the cache taken at a single point in
// time. The pair map is replaced wholesale on every write and never
// mutated in place, so readers may hold it without copying.
type Snapshot struct {
	Pairs       map[string]CacheEntry `json:"pairs"`
	LastRefresh time.Time             `json:"last_refresh"`
}

// Store owns the two durable documents. All writes serialize on one
// mutex around the read-modify-write-rename sequence; reads are lock-free
// loads of the current snapshot.
type Store struct {
	ratesPath   string
	historyPath string
	logger      *slog.Logger

	mu   sync.Mutex // guards the write path for cache and history
	snap atomic.Pointer[Snapshot]
}

// New opens (or initializes) the store at the given paths. A missing or
// corrupt cache file is treated as empty; first writes create it.
func New(ratesPath, historyPath string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		ratesPath:   ratesPath,
		historyPath: historyPath,
		logger:      logger,
	}
	snap := s.loadCache()
	s.snap.Store(&snap)
	return s
}

// Snapshot returns the current cache view. The result may be one refresh
// cycle stale with respect to an in-flight update.
func (s *Store) Snapshot() Snapshot {
	return *s.snap.Load()
}

// LastRefresh returns the timestamp of the last committed update cycle.
func (s *Store) LastRefresh() time.Time {
	return s.snap.Load().LastRefresh
}

// Rate returns the cached rate for a pair key, if present.
func (s *Store) Rate(pair string) (float64, bool) {
	entry, ok := s.snap.Load().Pairs[pair]
	if !ok {
		return 0, false
	}
	return entry.Rate, true
}

// Entry returns the full cache entry for a pair key, if present.
func (s *Store) Entry(pair string) (CacheEntry, bool) {
	entry, ok := s.snap.Load().Pairs[pair]
	return entry, ok
}

// UpdateCache unconditionally overwrites the cache entry of every given
// pair and stamps last_refresh. Returns the number of entries written.
func (s *Store) UpdateCache(pairs map[string]domain.RateQuote) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCacheLocked(pairs, time.Now())
}

// AppendHistory appends the given records, skipping any whose ID already
// exists. Existing records are never rewritten or deleted. Returns the
// number of records actually appended.
func (s *Store) AppendHistory(records []domain.HistoryRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendHistoryLocked(records)
}

// Commit writes one update cycle's cache entries and history records in a
// single critical section.
func (s *Store) Commit(pairs map[string]domain.RateQuote, records []domain.HistoryRecord) (updated, appended int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err = s.updateCacheLocked(pairs, time.Now())
	if err != nil {
		return 0, 0, err
	}
	appended, err = s.appendHistoryLocked(records)
	if err != nil {
		return updated, 0, err
	}
	return updated, appended, nil
}

func (s *Store) updateCacheLocked(pairs map[string]domain.RateQuote, now time.Time) (int, error) {
	current := s.loadCache()

	next := Snapshot{
		Pairs:       make(map[string]CacheEntry, len(current.Pairs)+len(pairs)),
		LastRefresh: now,
	}
	for k, v := range current.Pairs {
		next.Pairs[k] = v
	}
	for pair, q := range pairs {
		next.Pairs[pair] = CacheEntry{
			Rate:      q.Rate,
			UpdatedAt: now,
			Source:    q.Source,
		}
	}

	if err := writeFileAtomic(s.ratesPath, next); err != nil {
		// The prior durable file is untouched; keep the prior snapshot too.
		return 0, err
	}
	s.snap.Store(&next)
	return len(pairs), nil
}

func (s *Store) appendHistoryLocked(records []domain.HistoryRecord) (int, error) {
	history := s.loadHistory()

	seen := make(map[string]struct{}, len(history))
	for _, r := range history {
		seen[r.ID] = struct{}{}
	}

	appended := 0
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		history = append(history, r)
		appended++
	}
	if appended == 0 {
		return 0, nil
	}

	if err := writeFileAtomic(s.historyPath, history); err != nil {
		return 0, err
	}
	return appended, nil
}

// loadCache reads the cache document, substituting an empty default for a
// missing or corrupt file.
func (s *Store) loadCache() Snapshot {
	empty := Snapshot{Pairs: map[string]CacheEntry{}}

	data, err := os.ReadFile(s.ratesPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read rate cache, starting empty", "path", s.ratesPath, "error", err)
		}
		return empty
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("rate cache is corrupt, starting empty", "path", s.ratesPath, "error", err)
		return empty
	}
	if snap.Pairs == nil {
		snap.Pairs = map[string]CacheEntry{}
	}
	return snap
}

func (s *Store) loadHistory() []domain.HistoryRecord {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read rate history, starting empty", "path", s.historyPath, "error", err)
		}
		return nil
	}

	var history []domain.HistoryRecord
	if err := json.Unmarshal(data, &history); err != nil {
		s.logger.Warn("rate history is corrupt, starting empty", "path", s.historyPath, "error", err)
		return nil
	}
	return history
}
