package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/copydesk/copydesk/internal/ledger"
	"github.com/copydesk/copydesk/internal/notify"
	"github.com/copydesk/copydesk/internal/server"
	"github.com/copydesk/copydesk/internal/server/handler"
	"github.com/copydesk/copydesk/internal/server/ws"
	"github.com/copydesk/copydesk/internal/service"
)

// ServerMode runs the HTTP + WebSocket API without background archival.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "entering server mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)
	a.startNotifyListener(ctx, g, deps)

	return g.Wait()
}

// FullMode runs the HTTP + WebSocket API plus the archive retention loop.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "entering full mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)
	a.startNotifyListener(ctx, g, deps)

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		g.Go(func() error {
			return a.runRetentionLoop(ctx, deps)
		})
	} else {
		a.logger.InfoContext(ctx, "archival disabled; retention loop not started")
	}

	return g.Wait()
}

// startHTTPServer adds the HTTP server and WebSocket hub goroutines to the
// given errgroup. The server is shut down gracefully when the context is
// cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	// Core services.
	ledgerSvc := ledger.NewService(deps.PositionStore, deps.LockManager, deps.SignalBus, a.logger)
	tradeSvc := service.NewTradeService(deps.TradeStore, ledgerSvc, deps.PriceCache, deps.SignalBus, deps.AuditStore, a.logger)
	poolSvc := service.NewPoolService(deps.PoolStore, deps.FollowerStore, deps.SignalBus, deps.AuditStore, a.logger)
	portfolioSvc := service.NewPortfolioService(
		deps.PositionStore,
		deps.TradeStore,
		deps.FollowerStore,
		deps.PoolStore,
		deps.PriceCache,
		a.logger,
	)
	performanceSvc := service.NewPerformanceService(deps.TradeStore, deps.PoolStore, a.logger)
	leaderboardSvc := service.NewLeaderboardService(deps.PoolStore, deps.TradeStore, a.logger)
	marketSvc := service.NewMarketService(deps.TradeStore, deps.PoolStore, deps.WalletStore, a.logger)
	walletSvc := service.NewWalletService(deps.WalletStore, deps.AuditStore, a.logger)

	// WebSocket hub.
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(deps.Postgres.Pool(), deps.Redis, a.logger),
		Trades:      handler.NewTradeHandler(tradeSvc, a.logger),
		Pools:       handler.NewPoolHandler(poolSvc, a.logger),
		Portfolio:   handler.NewPortfolioHandler(portfolioSvc, a.logger),
		Performance: handler.NewPerformanceHandler(performanceSvc, a.logger),
		Leaderboard: handler.NewLeaderboardHandler(leaderboardSvc, a.logger),
		MarketData:  handler.NewMarketDataHandler(marketSvc, a.logger),
		Wallets:     handler.NewWalletHandler(walletSvc, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKeys:         a.cfg.Server.APIKeys,
		RateLimitPerMin: a.cfg.Server.RateLimitPerMin,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// startNotifyListener adds the notification event listener goroutine when at
// least one notification channel is configured.
func (a *App) startNotifyListener(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Notifier == nil {
		return
	}
	if a.cfg.Notify.TelegramToken == "" && a.cfg.Notify.DiscordWebhookURL == "" {
		return
	}

	listener := notify.NewEventListener(deps.SignalBus, deps.Notifier, a.logger)
	g.Go(func() error {
		err := listener.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// runRetentionLoop periodically archives trades and audit entries older than
// the retention window to S3 and then deletes them from the primary store.
// Deletion only happens after the archive upload succeeded.
func (a *App) runRetentionLoop(ctx context.Context, deps *Dependencies) error {
	interval := a.cfg.Archive.Interval.Duration
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	a.logger.InfoContext(ctx, "retention loop started",
		slog.Duration("interval", interval),
		slog.Int("retention_days", a.cfg.Archive.RetentionDays),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.runRetentionPass(ctx, deps); err != nil {
				a.logger.ErrorContext(ctx, "retention pass failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// runRetentionPass performs one archive-then-delete sweep.
func (a *App) runRetentionPass(ctx context.Context, deps *Dependencies) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -a.cfg.Archive.RetentionDays)

	archived, err := deps.Archiver.ArchiveTrades(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive trades: %w", err)
	}
	if archived > 0 {
		deleted, err := deps.TradeStore.DeleteBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("delete archived trades: %w", err)
		}
		a.logger.InfoContext(ctx, "trades archived",
			slog.Int64("archived", archived),
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}

	archived, err = deps.Archiver.ArchiveAuditLog(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive audit log: %w", err)
	}
	if archived > 0 {
		deleted, err := deps.AuditStore.DeleteBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("delete archived audit entries: %w", err)
		}
		a.logger.InfoContext(ctx, "audit log archived",
			slog.Int64("archived", archived),
			slog.Int64("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}

	return nil
}
