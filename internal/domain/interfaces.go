package domain

import (
	"context"
)

// SnapshotProvider defines the interface for upstream market-data sources
type SnapshotProvider interface {
	FetchSnapshots(ctx context.Context, ids []string) ([]AssetSnapshot, error)
}

// ShellNotifier delivers haptic feedback events to the host mini-app
// shell. Implementations must be safe no-ops when no shell is attached.
type ShellNotifier interface {
	NotifySuccess()
	NotifyError()
	NotifySelectionChanged()
	NotifyImpact(strength string)
}

// NoopShellNotifier is the notifier used when no shell bridge is wired
type NoopShellNotifier struct{}

func (NoopShellNotifier) NotifySuccess()               {}
func (NoopShellNotifier) NotifyError()                 {}
func (NoopShellNotifier) NotifySelectionChanged()      {}
func (NoopShellNotifier) NotifyImpact(strength string) {}

// CoinRepository defines how to access persisted asset metadata
type CoinRepository interface {
	UpsertCoin(coin *CoinInfo) error
	GetCoin(id string) (*CoinInfo, error)
	GetAllCoins() ([]CoinInfo, error)
	ToggleFavorite(id string) (bool, error)
}
