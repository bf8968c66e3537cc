package domain

import (
	"time"
)

// CoinInfo represents locally persisted metadata for a tracked asset
type CoinInfo struct {
	ID           string    `gorm:"primaryKey" json:"id"` // CoinGecko asset id (e.g. "bitcoin")
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	IconPath     string    `json:"icon_path"`
	IsFavorite   bool      `json:"is_favorite" gorm:"index"` // User favorite status
	LastSyncedAt time.Time `json:"last_synced_at"`           // Last icon sync time
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrefKeyCurrency is the AppConfig key holding the selected display currency
const PrefKeyCurrency = "display_currency"
