package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crypto_track/internal/domain"
	"crypto_track/internal/infra"
	"crypto_track/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Downloader *infra.IconDownloader

	syncOnce sync.Once
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (DB, Dir, etc.)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping CryptoTrack...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Initialize Icon Downloader
	downloader, err := infra.NewIconDownloader()
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("✅ Icon downloader ready")

	return nil
}

// SyncAssets persists coin metadata and caches icons from a fetched
// batch. Icon URLs only arrive with market data, so this runs after
// the first successful refresh; SyncOnce gates repeated publishes.
func (b *Bootstrap) SyncAssets(ctx context.Context, batch []domain.AssetSnapshot) {
	slog.Info("🔄 Starting asset synchronization...", slog.Int("assets", len(batch)))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, snap := range batch {
		wg.Add(1)
		go func(snap domain.AssetSnapshot) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			// 1. Upsert to DB
			coin := &domain.CoinInfo{
				ID:        snap.ID,
				Symbol:    snap.Symbol,
				Name:      snap.Name,
				UpdatedAt: time.Now(),
			}

			// Check if exists to preserve IsFavorite
			if existing, _ := b.Storage.GetCoin(snap.ID); existing != nil {
				coin.IsFavorite = existing.IsFavorite
				coin.IconPath = existing.IconPath
				coin.LastSyncedAt = existing.LastSyncedAt
			}

			if err := b.Storage.UpsertCoin(coin); err != nil {
				slog.Error("Failed to upsert coin", slog.String("id", snap.ID), slog.Any("error", err))
			}

			// 2. Download Icon (if missing)
			path, err := b.Downloader.DownloadIcon(ctx, snap.ID, snap.ImageURL)
			if err != nil {
				slog.Warn("Failed to download icon", slog.String("id", snap.ID), slog.Any("error", err))
			} else if path != "" {
				// Update path in DB
				coin.IconPath = path
				coin.LastSyncedAt = time.Now()
				b.Storage.UpsertCoin(coin)
			}
		}(snap)
	}

	wg.Wait()
	slog.Info("✨ Asset synchronization completed")
}

// SyncOnce runs SyncAssets in the background on the first call and is a
// no-op afterwards. Meant as a refresh subscriber hook.
func (b *Bootstrap) SyncOnce(ctx context.Context, batch []domain.AssetSnapshot) {
	if len(batch) == 0 {
		return
	}
	b.syncOnce.Do(func() {
		go b.SyncAssets(ctx, batch)
	})
}
