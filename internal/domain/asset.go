package domain

import "github.com/shopspring/decimal"

// Currency is a supported display currency code
type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
)

// Currencies lists every supported display currency.
// A snapshot is only complete when it carries a price for all of them.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR}

// ParseCurrency validates a currency code from user input
func ParseCurrency(s string) (Currency, bool) {
	switch Currency(s) {
	case CurrencyUSD, CurrencyEUR:
		return Currency(s), true
	}
	return "", false
}

// TimeRange selects the chart granularity
type TimeRange string

const (
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
)

// ParseTimeRange validates a range selector, defaulting to week
func ParseTimeRange(s string) (TimeRange, bool) {
	switch TimeRange(s) {
	case RangeWeek, RangeMonth, RangeYear:
		return TimeRange(s), true
	case "":
		return RangeWeek, true
	}
	return RangeWeek, false
}

// AssetSnapshot represents one tracked cryptocurrency at a point in time.
// Both currency maps always carry the same key set (usd, eur).
type AssetSnapshot struct {
	ID             string                       `json:"id"`
	Symbol         string                       `json:"symbol"`
	Name           string                       `json:"name"`
	CurrentPrice   map[Currency]decimal.Decimal `json:"current_price"`
	PriceChange24h *decimal.Decimal             `json:"price_change_percentage_24h,omitempty"` // absent upstream for some assets
	ImageURL       string                       `json:"image"`
	Sparkline7d    []decimal.Decimal            `json:"sparkline_7d"`
	MarketCap      map[Currency]decimal.Decimal `json:"market_cap"`
	LastUpdated    string                       `json:"last_updated"`
}

// Price returns the current price in the given currency
func (a *AssetSnapshot) Price(c Currency) decimal.Decimal {
	return a.CurrentPrice[c]
}

// ChangeDirection returns "positive", "negative", or "neutral".
// An absent 24h change is neutral, never positive.
func (a *AssetSnapshot) ChangeDirection() string {
	if a.PriceChange24h == nil {
		return "neutral"
	}
	if a.PriceChange24h.IsPositive() {
		return "positive"
	}
	if a.PriceChange24h.IsNegative() {
		return "negative"
	}
	return "neutral"
}

// Clone returns a deep copy so a held batch can never be mutated through
// a previously published reference.
func (a *AssetSnapshot) Clone() AssetSnapshot {
	out := *a
	out.CurrentPrice = make(map[Currency]decimal.Decimal, len(a.CurrentPrice))
	for k, v := range a.CurrentPrice {
		out.CurrentPrice[k] = v
	}
	out.MarketCap = make(map[Currency]decimal.Decimal, len(a.MarketCap))
	for k, v := range a.MarketCap {
		out.MarketCap[k] = v
	}
	out.Sparkline7d = append([]decimal.Decimal(nil), a.Sparkline7d...)
	if a.PriceChange24h != nil {
		chg := *a.PriceChange24h
		out.PriceChange24h = &chg
	}
	return out
}

// CloneBatch deep-copies a snapshot batch, preserving order
func CloneBatch(batch []AssetSnapshot) []AssetSnapshot {
	if batch == nil {
		return nil
	}
	out := make([]AssetSnapshot, 0, len(batch))
	for i := range batch {
		out = append(out, batch[i].Clone())
	}
	return out
}
