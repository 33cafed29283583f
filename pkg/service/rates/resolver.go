package rates

import (
	"strings"

	"github.com/valutatrade/hub/pkg/domain"
)

// Quoter is the read side of the rate cache the resolver consults.
type Quoter interface {
	// Rate returns the cached rate for a pair key, if present.
	Rate(pair string) (float64, bool)
}

// Resolver derives a rate for any currency pair from the base-anchored
// cache. Resolution tries, in order: identity, the direct pair, the
// reciprocal of the reverse pair, and a two-leg bridge through the base
// currency. Cached entries with non-positive rates are skipped as if
// absent.
type Resolver struct {
	quoter Quoter
	base   string
}

// NewResolver creates a resolver bridging through the given base currency.
func NewResolver(quoter Quoter, base string) *Resolver {
	return &Resolver{quoter: quoter, base: strings.ToUpper(base)}
}

// Resolve returns the rate at which 1 unit of from converts into to, and
// whether any resolution path existed. It never mutates the cache.
func (r *Resolver) Resolve(from, to string) (float64, bool) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)

	if from == to {
		return 1.0, true
	}

	if rate, ok := r.direct(from, to); ok {
		return rate, true
	}
	if rate, ok := r.direct(to, from); ok {
		return 1.0 / rate, true
	}

	// Bridge through the base: FROM→BASE then BASE→TO. Each leg may itself
	// be the reciprocal of a stored reverse pair.
	fromBase, ok := r.legToBase(from)
	if !ok {
		return 0, false
	}
	toBase, ok := r.legToBase(to)
	if !ok {
		return 0, false
	}
	return fromBase / toBase, true
}

// Direct reports whether from→to is stored as-is, without derivation.
func (r *Resolver) Direct(from, to string) bool {
	_, ok := r.direct(strings.ToUpper(from), strings.ToUpper(to))
	return ok
}

// direct returns the stored rate for from→to when present and positive.
func (r *Resolver) direct(from, to string) (float64, bool) {
	rate, ok := r.quoter.Rate(domain.PairKey(from, to))
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// legToBase resolves code→BASE using the direct pair or the reciprocal of
// BASE→code.
func (r *Resolver) legToBase(code string) (float64, bool) {
	if code == r.base {
		return 1.0, true
	}
	if rate, ok := r.direct(code, r.base); ok {
		return rate, true
	}
	if rate, ok := r.direct(r.base, code); ok {
		return 1.0 / rate, true
	}
	return 0, false
}
