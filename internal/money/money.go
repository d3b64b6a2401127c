// Package money handles dual-currency arithmetic for the POS core.
//
// Every amount is a fixed-point decimal (github.com/shopspring/decimal),
// never a binary float, so cent-level rounding errors cannot compound
// across line items. USD is the unit of record; the local currency ("Bs")
// is derived from it through the configured exchange rate.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate is returned wherever a non-positive exchange rate shows up.
var ErrInvalidRate = errors.New("exchange rate must be greater than zero")

// places is the monetary precision: two decimal digits, i.e. cents.
const places = 2

// RoundAmount rounds a monetary value to two decimal places, half away
// from zero. Applied at every conversion boundary so USD and Bs values
// agree with what ends up on a receipt.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(places)
}

// ToLocal converts a USD amount into local currency at the given rate.
func ToLocal(usd, rate decimal.Decimal) decimal.Decimal {
	return RoundAmount(usd.Mul(rate))
}

// ToUSD converts a local-currency amount back into USD.
func ToUSD(local, rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.Sign() <= 0 {
		return decimal.Zero, ErrInvalidRate
	}
	return local.DivRound(rate, places), nil
}

// ParseAmount parses an operator-typed amount. A comma decimal separator
// is accepted and normalised to a dot before parsing.
func ParseAmount(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
}
