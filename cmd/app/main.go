package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto_track/internal/app"
	"crypto_track/internal/infra/coingecko"
	"crypto_track/internal/infra/telegram"
	"crypto_track/internal/server"
	"crypto_track/internal/service"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Market Data Client + Refresh Controller
	client := coingecko.NewClientWithConfig(
		cfg.API.CoinGecko.BaseURL,
		cfg.API.CoinGecko.APIKey,
		cfg.API.CoinGecko.TimeoutSec,
	)

	refresher := service.NewRefresherWithConfig(
		client,
		cfg.API.CoinGecko.AssetIDs,
		time.Duration(cfg.Refresh.IntervalSec)*time.Second,
		nil, // bridge attached below
		bootstrap.Storage,
	)

	// 5. Shell Bridge + HTTP Server. The bridge pushes the current batch
	// to every freshly attached page.
	var srv *server.Server
	bridge := telegram.NewBridge(refresher, bootstrap.Storage, func(sess *telegram.Session) {
		srv.PushTo(sess)
	})
	refresher.SetNotifier(bridge)

	srv = server.NewServer(cfg.Server.Addr, refresher, bridge, bootstrap.Downloader.BasePath())

	// Every refresh outcome fans out to the connected pages; the first
	// successful batch also seeds the local coin metadata and icon cache.
	unsubscribe := refresher.Subscribe(func() {
		srv.PushUpdate()
		if refresher.State() == service.StateReady {
			bootstrap.SyncOnce(ctx, refresher.Snapshots())
		}
	})
	defer unsubscribe()

	if err := refresher.Start(ctx); err != nil {
		slog.Error("❌ Failed to start refresher", slog.Any("error", err))
		os.Exit(1)
	}
	defer refresher.Stop()
	slog.InfoContext(ctx, "✅ Refresh controller started",
		slog.Int("assets", len(cfg.API.CoinGecko.AssetIDs)),
		slog.Int("interval_sec", cfg.Refresh.IntervalSec))

	go func() {
		slog.InfoContext(ctx, "✅ HTTP server started", slog.String("addr", cfg.Server.Addr))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", slog.Any("error", err))
			stop()
		}
	}()

	slog.InfoContext(ctx, "✨ CryptoTrack fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
}
