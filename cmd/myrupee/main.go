package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"myrupee/internal/auth"
	"myrupee/internal/backend"
	"myrupee/internal/cache"
	"myrupee/internal/cli"
	"myrupee/internal/config"
	"myrupee/internal/dashboard"
	apphttp "myrupee/internal/http"
	applog "myrupee/internal/log"
	"myrupee/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()

	boot := config.Load()
	logger := cli.SetupLogger(boot.LogLevel, boot.LogFormat)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	logger.Info("Starting myrupee", applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port, "backend", cfg.DataBackend)

	be, err := backend.NewFactory(logger.WithComponent(applog.ComponentStorage).Slog()).Create(cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	authSvc := auth.NewService(be.Accounts, []byte(cfg.JWTSecret), cfg.SessionTTL,
		logger.WithComponent(applog.ComponentAuth).Slog())

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	registry := dashboard.NewRegistry(appCtx, authSvc, be.Collection, be.Profiles, cfg.MaxSessions, cfg.SessionIdleTTL,
		logger.WithComponent(applog.ComponentDashboard).Slog())

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	caches.Register(registry.Cleaner())
	caches.StartCleanup(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:       authSvc,
		Sessions:   registry,
		Ready:      be.Ready,
		Logger:     logger,
		RateLimit:  ratelimit.DefaultConfig(),
		SessionTTL: cfg.SessionTTL,
	})

	ctx, shutdownDone := cli.GracefulShutdown(logger.Slog(), 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		stopApp()
		caches.Stop()
		registry.Close()
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Error closing backend", "error", err)
			}
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if be.Run != nil {
		g.Go(func() error {
			if err := be.Run(appCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		stopApp()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		srv.Shutdown(context.Background())
		os.Exit(1)
	}
	<-shutdownDone
	logger.Info("Server stopped gracefully")
}
