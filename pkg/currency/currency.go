package currency

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultBase is the fallback base currency code (USD).
	DefaultBase = "USD"

	// FiatDecimals is the display precision for fiat amounts.
	FiatDecimals = 2
	// CryptoDecimals is the display precision for crypto amounts.
	CryptoDecimals = 4
)

// Kind discriminates the currency variant.
type Kind string

const (
	KindFiat   Kind = "fiat"
	KindCrypto Kind = "crypto"
)

var (
	// ErrInvalidCode is returned when a currency code fails format validation.
	ErrInvalidCode = errors.New("currency code must be 2-5 uppercase characters without whitespace")
	// ErrEmptyName is returned when a currency name is empty.
	ErrEmptyName = errors.New("currency name cannot be empty")
)

// Currency describes a single registered currency. The Kind discriminator
// selects which variant payload is meaningful: IssuingAuthority for fiat,
// ConsensusAlgorithm and MarketCapUSD for crypto.
type Currency struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// Fiat payload.
	IssuingAuthority string `json:"issuing_authority,omitempty"`

	// Crypto payload.
	ConsensusAlgorithm string  `json:"consensus_algorithm,omitempty"`
	MarketCapUSD       float64 `json:"market_cap_usd,omitempty"`
}

// NewFiat builds a validated fiat currency.
func NewFiat(code, name, issuingAuthority string) (Currency, error) {
	c := Currency{
		Code:             strings.ToUpper(strings.TrimSpace(code)),
		Name:             strings.TrimSpace(name),
		Kind:             KindFiat,
		IssuingAuthority: issuingAuthority,
	}
	return c, c.validate()
}

// NewCrypto builds a validated cryptocurrency.
func NewCrypto(code, name, algorithm string, marketCapUSD float64) (Currency, error) {
	c := Currency{
		Code:               strings.ToUpper(strings.TrimSpace(code)),
		Name:               strings.TrimSpace(name),
		Kind:               KindCrypto,
		ConsensusAlgorithm: algorithm,
		MarketCapUSD:       marketCapUSD,
	}
	return c, c.validate()
}

func (c Currency) validate() error {
	if !IsValidCodeFormat(c.Code) {
		return ErrInvalidCode
	}
	if c.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// IsValidCodeFormat reports whether code is 2-5 uppercase characters with no
// whitespace. It does not consult the registry.
func IsValidCodeFormat(code string) bool {
	if len(code) < 2 || len(code) > 5 {
		return false
	}
	for _, r := range code {
		if unicode.IsSpace(r) {
			return false
		}
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	return strings.ToUpper(code) == code
}

// Decimals returns the display precision for amounts of this currency.
func (c Currency) Decimals() int {
	if c.Kind == KindCrypto {
		return CryptoDecimals
	}
	return FiatDecimals
}

// DisplayInfo renders the currency for UI and logs.
// Fiat:   [FIAT] USD — US Dollar (Issuing: United States)
// Crypto: [CRYPTO] BTC — Bitcoin (Algo: SHA-256, MCAP: 1.12e+12)
func (c Currency) DisplayInfo() string {
	switch c.Kind {
	case KindCrypto:
		return fmt.Sprintf("[CRYPTO] %s — %s (Algo: %s, MCAP: %.2e)",
			c.Code, c.Name, c.ConsensusAlgorithm, c.MarketCapUSD)
	default:
		return fmt.Sprintf("[FIAT] %s — %s (Issuing: %s)",
			c.Code, c.Name, c.IssuingAuthority)
	}
}
