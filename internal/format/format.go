// Package format holds the pure display-string helpers used by the
// presentation layer. Display-only rounding: none of these are meant
// for financial computation.
package format

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"crypto_track/internal/domain"
)

var printer = message.NewPrinter(language.AmericanEnglish)

var currencySymbols = map[domain.Currency]string{
	domain.CurrencyUSD: "$",
	domain.CurrencyEUR: "€",
}

// cryptoColors is the fixed per-asset accent palette
var cryptoColors = map[string]string{
	"bitcoin":  "#F7931A",
	"ethereum": "#627EEA",
	"cardano":  "#0033AD",
	"solana":   "#00FFA3",
	"polkadot": "#E6007A",
}

const defaultColor = "#7E7E7E"

// Symbol returns the display symbol for a currency
func Symbol(c domain.Currency) string {
	return currencySymbols[c]
}

// Price renders a price with its currency symbol and en-US digit
// grouping, always two fraction digits (e.g. "$50,000.00").
func Price(p decimal.Decimal, c domain.Currency) string {
	v, _ := p.Round(2).Float64()
	return Symbol(c) + printer.Sprintf("%v",
		number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// LargeNumber abbreviates big values with K/M/B suffixes
// (e.g. "$1.23B" for market caps).
func LargeNumber(n decimal.Decimal, c domain.Currency) string {
	sym := Symbol(c)
	switch {
	case n.GreaterThanOrEqual(decimal.New(1, 9)):
		return sym + n.Div(decimal.New(1, 9)).StringFixed(2) + "B"
	case n.GreaterThanOrEqual(decimal.New(1, 6)):
		return sym + n.Div(decimal.New(1, 6)).StringFixed(2) + "M"
	case n.GreaterThanOrEqual(decimal.New(1, 3)):
		return sym + n.Div(decimal.New(1, 3)).StringFixed(2) + "K"
	}
	return sym + n.StringFixed(2)
}

// Percentage renders a signed percent change with two fraction digits.
// Zero and positive values get an explicit plus sign.
func Percentage(p decimal.Decimal) string {
	if p.IsNegative() {
		return p.StringFixed(2) + "%"
	}
	return "+" + p.StringFixed(2) + "%"
}

// Color returns the accent color for an asset id, gray when unknown
func Color(id string) string {
	if c, ok := cryptoColors[id]; ok {
		return c
	}
	return defaultColor
}
