// Package portfolio persists portfolios in a single JSON document keyed
// by owner name, mirroring the rate store's atomic-replacement discipline.
package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/valutatrade/hub/pkg/domain"
)

// ErrNotFound is returned when no portfolio exists for the given owner.
var ErrNotFound = domain.ErrPortfolioNotFound

// Repository stores all portfolios in one document; every save is a
// read-modify-write under the repository mutex followed by an atomic
// replacement of the file.
type Repository struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewRepository opens the repository backed by the given file path.
func NewRepository(path string, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{path: path, logger: logger}
}

// Load returns the portfolio for the given owner.
func (r *Repository) Load(owner string) (*domain.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.loadAll()
	p, ok := all[owner]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, owner)
	}
	return p, nil
}

// Save persists the given portfolio, merging it into the full document.
// The write completes before Save returns; a failed write leaves the
// previous durable file intact.
func (r *Repository) Save(p *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.loadAll()
	all[p.Owner] = p
	return r.writeAll(all)
}

func (r *Repository) loadAll() map[string]*domain.Portfolio {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("failed to read portfolios, starting empty", "path", r.path, "error", err)
		}
		return map[string]*domain.Portfolio{}
	}

	var all map[string]*domain.Portfolio
	if err := json.Unmarshal(data, &all); err != nil {
		r.logger.Warn("portfolios document is corrupt, starting empty", "path", r.path, "error", err)
		return map[string]*domain.Portfolio{}
	}
	if all == nil {
		all = map[string]*domain.Portfolio{}
	}
	return all
}

func (r *Repository) writeAll(all map[string]*domain.Portfolio) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".portfolios-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(all); err != nil {
		tmp.Close()        //nolint:errcheck
		os.Remove(tmpPath) //nolint:errcheck
		return fmt.Errorf("encoding portfolios: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return fmt.Errorf("flushing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath) //nolint:errcheck
		return fmt.Errorf("replacing portfolios: %w", err)
	}
	return nil
}
