// Package provider defines the capability each external rate source
// exposes to the aggregator. Concrete adapters live in infra/provider.
package provider

import (
	"context"
	"fmt"

	"github.com/valutatrade/hub/pkg/domain"
)

// RateSource fetches the current quotes of one external provider, already
// translated into canonical "<CODE>_<BASE>" form. Sources are independent
// and hold no shared state; a failing source never blocks the others.
type RateSource interface {
	// FetchRates returns all quotes the source currently serves, keyed by
	// pair key, or a *SourceError describing the failure.
	FetchRates(ctx context.Context) (map[string]domain.RateQuote, error)

	// Name identifies the source in logs and update summaries.
	Name() string
}

// ErrorKind classifies source failures.
type ErrorKind string

const (
	NetworkFailure    ErrorKind = "network_failure"
	AuthFailure       ErrorKind = "auth_failure"
	RateLimited       ErrorKind = "rate_limited"
	MalformedResponse ErrorKind = "malformed_response"
)

// SourceError describes a failure of one external rate source. The
// aggregator recovers it locally; it never reaches the trading path.
type SourceError struct {
	Kind   ErrorKind
	Source string
	Detail string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Source, e.Detail, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Source, e.Detail, e.Kind)
}

func (e *SourceError) Unwrap() error { return e.Err }
