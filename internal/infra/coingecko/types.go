package coingecko

import "github.com/shopspring/decimal"

// marketsRow represents one asset in a /coins/markets response
type marketsRow struct {
	ID             string           `json:"id"`
	Symbol         string           `json:"symbol"`
	Name           string           `json:"name"`
	CurrentPrice   decimal.Decimal  `json:"current_price"`
	MarketCap      decimal.Decimal  `json:"market_cap"`
	PriceChange24h *decimal.Decimal `json:"price_change_percentage_24h"` // usd call only, may be null
	Image          string           `json:"image"`
	Sparkline      *sparkline       `json:"sparkline_in_7d"` // usd call only
	LastUpdated    string           `json:"last_updated"`
}

// sparkline holds the bundled 7-day hourly price history
type sparkline struct {
	Price []decimal.Decimal `json:"price"`
}
