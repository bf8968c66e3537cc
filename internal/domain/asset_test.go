package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestChangeDirection(t *testing.T) {
	up := decimal.NewFromFloat(2.5)
	down := decimal.NewFromFloat(-1.2)
	flat := decimal.Zero

	cases := []struct {
		name   string
		change *decimal.Decimal
		want   string
	}{
		{"positive", &up, "positive"},
		{"negative", &down, "negative"},
		{"zero", &flat, "neutral"},
		{"absent upstream", nil, "neutral"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := AssetSnapshot{ID: "bitcoin", PriceChange24h: tc.change}
			if got := a.ChangeDirection(); got != tc.want {
				t.Errorf("ChangeDirection() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	chg := decimal.NewFromFloat(1.5)
	orig := AssetSnapshot{
		ID:     "bitcoin",
		Symbol: "btc",
		CurrentPrice: map[Currency]decimal.Decimal{
			CurrencyUSD: decimal.NewFromInt(50000),
			CurrencyEUR: decimal.NewFromInt(46000),
		},
		MarketCap: map[Currency]decimal.Decimal{
			CurrencyUSD: decimal.NewFromInt(1000),
			CurrencyEUR: decimal.NewFromInt(920),
		},
		Sparkline7d:    []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)},
		PriceChange24h: &chg,
	}

	clone := orig.Clone()

	clone.CurrentPrice[CurrencyUSD] = decimal.Zero
	clone.Sparkline7d[0] = decimal.NewFromInt(99)
	*clone.PriceChange24h = decimal.NewFromInt(-9)

	if !orig.CurrentPrice[CurrencyUSD].Equal(decimal.NewFromInt(50000)) {
		t.Error("mutating clone price leaked into original")
	}
	if !orig.Sparkline7d[0].Equal(decimal.NewFromInt(1)) {
		t.Error("mutating clone sparkline leaked into original")
	}
	if !orig.PriceChange24h.Equal(chg) {
		t.Error("mutating clone change leaked into original")
	}
}

func TestParseCurrency(t *testing.T) {
	if c, ok := ParseCurrency("eur"); !ok || c != CurrencyEUR {
		t.Errorf("ParseCurrency(eur) = %v, %v", c, ok)
	}
	if _, ok := ParseCurrency("gbp"); ok {
		t.Error("ParseCurrency(gbp) should fail")
	}
}

func TestParseTimeRange(t *testing.T) {
	if r, ok := ParseTimeRange(""); !ok || r != RangeWeek {
		t.Errorf("empty range should default to week, got %v, %v", r, ok)
	}
	if r, ok := ParseTimeRange("year"); !ok || r != RangeYear {
		t.Errorf("ParseTimeRange(year) = %v, %v", r, ok)
	}
	if _, ok := ParseTimeRange("decade"); ok {
		t.Error("ParseTimeRange(decade) should fail")
	}
}
