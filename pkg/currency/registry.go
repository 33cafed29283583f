package currency

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/valutatrade/hub/pkg/registry"
)

const (
	metaKind             = "kind"
	metaIssuingAuthority = "issuing_authority"
	metaAlgorithm        = "consensus_algorithm"
	metaMarketCap        = "market_cap_usd"
)

// NotFoundError is returned when a currency code is not registered. It
// carries the offending code so callers can surface it with the list of
// supported codes.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("currency %q is not supported", e.Code)
}

// Registry is the currency catalog: a read-mostly wrapper over the generic
// entity registry. Entries are immutable once registered.
type Registry struct {
	registry *registry.Registry
}

// NewRegistry creates an empty currency registry.
func NewRegistry() *Registry {
	return &Registry{registry: registry.New()}
}

// NewDefaultRegistry creates a registry seeded with the stock catalog of
// fiat and crypto currencies the system quotes out of the box.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	defaults := []Currency{
		{Code: "USD", Name: "US Dollar", Kind: KindFiat, IssuingAuthority: "United States"},
		{Code: "EUR", Name: "Euro", Kind: KindFiat, IssuingAuthority: "Eurozone"},
		{Code: "GBP", Name: "British Pound", Kind: KindFiat, IssuingAuthority: "United Kingdom"},
		{Code: "JPY", Name: "Japanese Yen", Kind: KindFiat, IssuingAuthority: "Japan"},
		{Code: "RUB", Name: "Russian Ruble", Kind: KindFiat, IssuingAuthority: "Russia"},
		{Code: "CNY", Name: "Chinese Yuan", Kind: KindFiat, IssuingAuthority: "China"},
		{Code: "BTC", Name: "Bitcoin", Kind: KindCrypto, ConsensusAlgorithm: "SHA-256", MarketCapUSD: 1.12e12},
		{Code: "ETH", Name: "Ethereum", Kind: KindCrypto, ConsensusAlgorithm: "Ethash", MarketCapUSD: 4.2e11},
		{Code: "SOL", Name: "Solana", Kind: KindCrypto, ConsensusAlgorithm: "Proof of History", MarketCapUSD: 8.5e10},
		{Code: "DOGE", Name: "Dogecoin", Kind: KindCrypto, ConsensusAlgorithm: "Scrypt", MarketCapUSD: 2.3e10},
		{Code: "XRP", Name: "Ripple", Kind: KindCrypto, ConsensusAlgorithm: "RPCA", MarketCapUSD: 3.1e10},
	}
	for _, c := range defaults {
		// The stock catalog is well-formed; Register only fails on
		// malformed input.
		_ = r.Register(c)
	}
	return r
}

// Register validates and adds a currency to the catalog.
func (r *Registry) Register(c Currency) error {
	if err := c.validate(); err != nil {
		return err
	}
	meta := registry.Meta{
		ID:     c.Code,
		Name:   c.Name,
		Active: true,
		Metadata: map[string]string{
			metaKind: string(c.Kind),
		},
	}
	switch c.Kind {
	case KindCrypto:
		meta.Metadata[metaAlgorithm] = c.ConsensusAlgorithm
		meta.Metadata[metaMarketCap] = strconv.FormatFloat(c.MarketCapUSD, 'g', -1, 64)
	default:
		meta.Metadata[metaIssuingAuthority] = c.IssuingAuthority
	}
	r.registry.Register(c.Code, meta)
	return nil
}

// Lookup returns the currency for the given code, or a *NotFoundError.
func (r *Registry) Lookup(code string) (Currency, error) {
	meta, ok := r.registry.Get(normalize(code))
	if !ok {
		return Currency{}, &NotFoundError{Code: normalize(code)}
	}
	return fromMeta(meta), nil
}

// IsSupported checks if a currency code is registered.
func (r *Registry) IsSupported(code string) bool {
	return r.registry.IsRegistered(normalize(code))
}

// ListSupportedCodes returns all registered currency codes, sorted.
func (r *Registry) ListSupportedCodes() []string {
	return r.registry.ListRegistered()
}

// Count returns the number of registered currencies.
func (r *Registry) Count() int {
	return r.registry.Count()
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func fromMeta(meta registry.Meta) Currency {
	c := Currency{
		Code: meta.ID,
		Name: meta.Name,
		Kind: Kind(meta.Metadata[metaKind]),
	}
	switch c.Kind {
	case KindCrypto:
		c.ConsensusAlgorithm = meta.Metadata[metaAlgorithm]
		if mc, err := strconv.ParseFloat(meta.Metadata[metaMarketCap], 64); err == nil {
			c.MarketCapUSD = mc
		}
	default:
		c.IssuingAuthority = meta.Metadata[metaIssuingAuthority]
	}
	return c
}
